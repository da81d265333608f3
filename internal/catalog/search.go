package catalog

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/desertthunder/chordsync/internal/models"
)

// Fold lowercases s and strips combining marks, so "Café" matches "cafe".
func Fold(s string) string {
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	return strings.TrimSpace(s)
}

// Search returns songs whose title or content contains term, one per folded title.
// Among songs sharing a title, the user's own song wins, then the most recent.
func Search(cat Catalog, term string) []models.Song {
	needle := Fold(term)

	best := map[string]models.Song{}
	for _, s := range cat.songs {
		if needle != "" && !strings.Contains(Fold(s.Title), needle) && !strings.Contains(Fold(s.Content), needle) {
			continue
		}
		title := Fold(s.Title)
		cur, ok := best[title]
		if !ok || prefer(s, cur, cat.uid) {
			best[title] = s
		}
	}

	out := make([]models.Song, 0, len(best))
	for _, s := range best {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := Fold(out[i].Title), Fold(out[j].Title)
		if ti != tj {
			return ti < tj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func prefer(a, b models.Song, uid string) bool {
	aMine, bMine := a.OwnerUID == uid && uid != "", b.OwnerUID == uid && uid != ""
	if aMine != bMine {
		return aMine
	}
	if a.Timestamp != b.Timestamp {
		return a.Timestamp > b.Timestamp
	}
	return a.ID < b.ID
}
