// Package selection decides which tracker songs are worth downloading.
package selection

import (
	"github.com/jaki95/unreleased-downloader/internal/domain"
)

var (
	allowedTypes = set("Throwaway", "OG", "OG File", "Demo", "High Bitrate Rip")

	allowedPortions = set("Full", "OG", "OG File")

	allowedQualities = set("Lossless", "CD Quality", "High Quality")

	// placeholderValues mark OG rows that only document a file name.
	placeholderValues = set("OG", "OG File")
)

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func in(m map[string]struct{}, v string) bool {
	_, ok := m[v]
	return ok
}

// Eligible reports whether a song has a link and a downloadable
// type, portion and quality.
func Eligible(s *domain.Song) bool {
	if len(s.Links) == 0 {
		return false
	}
	if !in(allowedTypes, s.Type) || !in(allowedPortions, s.Portion) || !in(allowedQualities, s.Quality) {
		return false
	}
	return !(in(placeholderValues, s.Type) && in(placeholderValues, s.Portion))
}

// Resolve returns the eligible songs that carry the highest eligible
// version of their title, in input order.
func Resolve(songs []*domain.Song) []*domain.Song {
	canonical := make(map[string]*int)
	seen := make(map[string]bool)

	for _, s := range songs {
		if !Eligible(s) {
			continue
		}
		title := s.Title()
		if !seen[title] || newer(s.Version(), canonical[title]) {
			canonical[title] = s.Version()
			seen[title] = true
		}
	}

	var scheduled []*domain.Song
	for _, s := range songs {
		if Eligible(s) && sameVersion(s.Version(), canonical[s.Title()]) {
			scheduled = append(scheduled, s)
		}
	}
	return scheduled
}

// newer orders versions with a missing version below every explicit one.
func newer(a, b *int) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a > *b
	}
}

func sameVersion(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Songs picks the songs out of an ordered record stream.
func Songs(records []domain.Record) []*domain.Song {
	var songs []*domain.Song
	for _, r := range records {
		if s, ok := r.(*domain.Song); ok {
			songs = append(songs, s)
		}
	}
	return songs
}
