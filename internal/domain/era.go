package domain

import (
	"regexp"
	"strings"
)

var highQualityImageRegex = regexp.MustCompile(`=(?:w|h)\d+-(?:w|h)\d+`)

// Era is a section row grouping the songs that follow it.
type Era struct {
	Stats       map[string]int `json:"stats"`
	Name        string         `json:"name"`
	Timeline    string         `json:"timeline"`
	ImageURL    string         `json:"image_url"`
	Description string         `json:"description,omitempty"`
}

func (*Era) record() {}

// Title returns the first line of the era name.
func (e *Era) Title() string {
	title, _, _ := strings.Cut(e.Name, "\n")
	return strings.TrimSpace(title)
}

// Aliases returns the comma or semicolon separated names on the second line.
func (e *Era) Aliases() []string {
	return aliasesFromLine(e.Name, 1)
}

// HighQualityImageURL strips the size suffix Google adds to hosted images.
func (e *Era) HighQualityImageURL() string {
	return highQualityImageRegex.ReplaceAllString(e.ImageURL, "")
}

func aliasesFromLine(name string, index int) []string {
	lines := strings.Split(name, "\n")
	if len(lines) <= index {
		return []string{}
	}

	line := strings.TrimRight(strings.TrimLeft(lines[index], "("), ")")
	parts := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ';'
	})

	aliases := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			aliases = append(aliases, p)
		}
	}
	return aliases
}
