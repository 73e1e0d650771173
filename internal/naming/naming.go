// Package naming parses the free-text name field of a tracker song.
//
// The first line of a name carries an optional emoji, an optional
// "<artist> - " prefix, the title and up to two trailing annotations
// ("[v2]", "(feat. X)", "(prod. Y)", "(with Z)"). The second line, when
// present, only carries feature and producer annotations.
package naming

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	keywordFeat = "feat."
	keywordProd = "prod."
	keywordWith = "with"
)

var (
	// emojis is the closed set of leading glyphs trackers use to flag songs.
	emojis = []string{
		"⭐️", "⭐", "🏆", "✨️", "✨", "🗑️", "🥉", "👑", "🥇",
	}

	annotationPattern = `\s(?:\[v\d+\]|\((?:feat\.|prod\.|with)\s[^\)]+\)|\[(?:feat\.|prod\.|with)\s[^\]]+\])`

	nameRegex = regexp.MustCompile(`(?i)^(?:(` + emojiAlternation() + `)\s)?` +
		`(?:(.+)\s-\s)?` +
		`(.+?)` +
		`(?:\s\[v\d+\])?` +
		`(?:` + annotationPattern + `){0,2}$`)

	annotationRegex = regexp.MustCompile(`(?i)\s(?:\[v(\d+)\]|\(((?:feat\.|prod\.|with)\s[^\)]+)\)|\[((?:feat\.|prod\.|with)\s[^\]]+)\])`)

	creditRegex = regexp.MustCompile(`\((feat\.|prod\.|with)\s([^\)]+)\)`)
)

func emojiAlternation() string {
	quoted := make([]string, len(emojis))
	for i, e := range emojis {
		quoted[i] = regexp.QuoteMeta(e)
	}
	return strings.Join(quoted, "|")
}

// Name holds the values extracted from a song name.
type Name struct {
	Emoji     string
	Artist    string
	Title     string
	Version   *int
	Features  []string
	Producers []string
}

// DisplayVersion returns the version, or 1 when the name carries none.
func (n Name) DisplayVersion() int {
	if n.Version == nil {
		return 1
	}
	return *n.Version
}

// Parse extracts the name values from the trimmed, non-empty lines of a
// name cell. Only the first two lines are considered.
func Parse(lines []string) Name {
	if len(lines) == 0 {
		return Name{}
	}

	first := strings.TrimSpace(lines[0])
	name := Name{Title: first}

	var features, producers []string

	if m := nameRegex.FindStringSubmatchIndex(first); m != nil {
		if m[2] >= 0 {
			name.Emoji = strings.TrimSpace(first[m[2]:m[3]])
		}
		if m[4] >= 0 {
			name.Artist = strings.TrimSpace(first[m[4]:m[5]])
		}
		if title := strings.TrimRight(strings.TrimSpace(first[m[6]:m[7]]), "*"); title != "" {
			name.Title = title
		}

		for _, a := range annotationRegex.FindAllStringSubmatch(first[m[7]:], -1) {
			switch {
			case a[1] != "":
				if v, err := strconv.Atoi(a[1]); err == nil {
					name.Version = &v
				}
			case a[2] != "":
				features, producers = appendCredit(features, producers, a[2])
			case a[3] != "":
				features, producers = appendCredit(features, producers, a[3])
			}
		}
	}

	if len(lines) > 1 {
		f, p := ExtractCredits(lines[1])
		features = append(features, f...)
		producers = append(producers, p...)
	}

	name.Features = Unique(features)
	name.Producers = Unique(producers)
	return name
}

// ExtractCredits scans a line for "(feat. ...)", "(with ...)" and
// "(prod. ...)" groups and returns the featured artists and producers.
func ExtractCredits(line string) (features, producers []string) {
	features, producers = []string{}, []string{}
	for _, m := range creditRegex.FindAllStringSubmatch(line, -1) {
		switch m[1] {
		case keywordFeat, keywordWith:
			features = append(features, splitCredits(m[2])...)
		case keywordProd:
			producers = append(producers, splitCredits(m[2])...)
		}
	}
	return features, producers
}

// appendCredit classifies an annotation body such as "feat. X & Y".
func appendCredit(features, producers []string, body string) ([]string, []string) {
	keyword, rest, ok := strings.Cut(body, " ")
	if !ok {
		return features, producers
	}
	switch strings.ToLower(keyword) {
	case keywordFeat, keywordWith:
		features = append(features, splitCredits(rest)...)
	case keywordProd:
		producers = append(producers, splitCredits(rest)...)
	}
	return features, producers
}

func splitCredits(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '&'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Unique drops blank and repeated values, keeping first-seen order.
func Unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
