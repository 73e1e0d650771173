package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaki95/unreleased-downloader/internal/domain"
)

var someLink = domain.Links{{Label: "Pixeldrain", URL: "https://pixeldrain.com/u/abc"}}

func song(name, typ, portion, quality string, links domain.Links) *domain.Song {
	return domain.NewSong(domain.SongFields{
		Name:    name,
		Type:    typ,
		Portion: portion,
		Quality: quality,
		Links:   links,
	})
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name     string
		song     *domain.Song
		expected bool
	}{
		{"valid", song("A", "Demo", "Full", "CD Quality", someLink), true},
		{"no link", song("A", "Demo", "Full", "CD Quality", nil), false},
		{"bad type", song("A", "Snippet", "Full", "CD Quality", someLink), false},
		{"bad portion", song("A", "Demo", "Snippet", "CD Quality", someLink), false},
		{"bad quality", song("A", "Demo", "Full", "Low Quality", someLink), false},
		{"og placeholder", song("A", "OG File", "OG File", "Lossless", someLink), false},
		{"og file full", song("A", "OG File", "Full", "Lossless", someLink), true},
		{"og type og portion", song("A", "OG", "OG", "High Quality", someLink), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Eligible(tt.song))
		})
	}
}

func TestResolve(t *testing.T) {
	t.Run("ineligible higher version does not win", func(t *testing.T) {
		v1 := song("Rock N Roll [v1]", "Demo", "Full", "CD Quality", nil)
		v2 := song("Rock N Roll [v2]", "Demo", "Full", "CD Quality", someLink)

		assert.Equal(t, []*domain.Song{v2}, Resolve([]*domain.Song{v1, v2}))
	})

	t.Run("ineligible newest leaves older eligible version", func(t *testing.T) {
		v1 := song("Rock N Roll [v1]", "Demo", "Full", "CD Quality", someLink)
		v2 := song("Rock N Roll [v2]", "Demo", "Full", "CD Quality", nil)

		assert.Equal(t, []*domain.Song{v1}, Resolve([]*domain.Song{v1, v2}))
	})

	t.Run("explicit version beats missing version", func(t *testing.T) {
		bare := song("Overseas", "Demo", "Full", "CD Quality", someLink)
		v1 := song("Overseas [v1]", "Demo", "Full", "CD Quality", someLink)

		assert.Equal(t, []*domain.Song{v1}, Resolve([]*domain.Song{bare, v1}))
	})

	t.Run("ties keep every copy in input order", func(t *testing.T) {
		a := song("Freestyle [v3]", "Demo", "Full", "CD Quality", someLink)
		b := song("Other", "Demo", "Full", "Lossless", someLink)
		c := song("Freestyle [v3]", "OG File", "Full", "Lossless", someLink)
		d := song("Freestyle [v2]", "Demo", "Full", "Lossless", someLink)

		assert.Equal(t, []*domain.Song{a, b, c}, Resolve([]*domain.Song{a, b, c, d}))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Resolve(nil))
	})
}

func TestSongs(t *testing.T) {
	s1 := song("A", "Demo", "Full", "CD Quality", nil)
	s2 := song("B", "Demo", "Full", "CD Quality", nil)
	records := []domain.Record{&domain.Era{Name: "E"}, s1, &domain.Era{Name: "F"}, s2}

	assert.Equal(t, []*domain.Song{s1, s2}, Songs(records))
}
