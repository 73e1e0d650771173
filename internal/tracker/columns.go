package tracker

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	statLineRegex = regexp.MustCompile(`(\d+)\s(.+)`)

	dateLayouts = []string{
		"Jan 2, 2006",
		"January 2, 2006",
		"Jan 2 2006",
		"2 Jan 2006",
		"01/02/2006",
		"1/2/2006",
		"01/02/06",
		"1/2/06",
		"2006-01-02",
		"2006/01/02",
		"Jan 2006",
		"January 2006",
		time.RFC3339,
	}
)

// parseLength converts "m:ss" into seconds. Zero lengths are treated as
// missing.
func parseLength(s string) *int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return nil
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil
	}
	if minutes == 0 && seconds == 0 {
		return nil
	}

	total := minutes*60 + seconds
	return &total
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseStats reads lines such as "12 OG File(s)" into a name to count map.
func parseStats(s string) map[string]int {
	stats := make(map[string]int)
	for _, line := range strings.Split(s, "\n") {
		m := statLineRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		amount, err := strconv.Atoi(m[1])
		if err != nil {
			amount = 0
		}
		name := strings.NewReplacer("(", "", ")", "").Replace(m[2])
		if _, ok := stats[name]; !ok {
			stats[name] = amount
		}
	}
	return stats
}
