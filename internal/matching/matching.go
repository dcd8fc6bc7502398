// Package matching picks the producer best suited to an order's genre.
package matching

import (
	"math/rand"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"song-request-backend/internal/models"
)

// Genre is one entry of the static genre table.
type Genre struct {
	Slug     string   `json:"slug"`
	Label    string   `json:"label"`
	Keywords []string `json:"keywords"`
}

var genreTable = []Genre{
	{"hip_hop", "Hip Hop", []string{"hip hop", "hip-hop", "hiphop", "trap", "boom bap", "drill"}},
	{"trap", "Trap", []string{"trap", "drill", "808"}},
	{"pop", "Pop", []string{"pop", "top 40", "dance pop"}},
	{"rnb", "R&B", []string{"r&b", "rnb", "soul", "neo soul"}},
	{"rock", "Rock", []string{"rock", "alternative", "indie", "punk", "metal"}},
	{"edm", "Electronic", []string{"edm", "electronic", "house", "techno", "dubstep", "dance"}},
	{"country", "Country", []string{"country", "americana", "folk"}},
	{"lofi", "Lo-fi", []string{"lofi", "lo-fi", "chill", "ambient"}},
	{"latin", "Latin", []string{"latin", "reggaeton", "salsa", "bachata"}},
	{"afrobeats", "Afrobeats", []string{"afrobeats", "afro", "amapiano", "dancehall"}},
	{"gospel", "Gospel", []string{"gospel", "worship", "christian"}},
	{"jazz", "Jazz", []string{"jazz", "blues", "swing"}},
}

// Genres returns a copy of the genre table.
func Genres() []Genre {
	out := make([]Genre, len(genreTable))
	for i, g := range genreTable {
		g.Keywords = slices.Clone(g.Keywords)
		out[i] = g
	}
	return out
}

// Keywords returns the keywords for a genre slug or label. Unknown genres
// match on their own name.
func Keywords(genre string) []string {
	needle := strings.ToLower(strings.TrimSpace(genre))
	if needle == "" {
		return nil
	}
	for _, g := range genreTable {
		if g.Slug == needle || strings.ToLower(g.Label) == needle {
			return slices.Clone(g.Keywords)
		}
	}
	return []string{strings.ReplaceAll(needle, "_", " ")}
}

// Score counts how many of keywords occur in the producer's genre text.
func Score(keywords []string, producerGenres string) int {
	text := strings.ToLower(producerGenres)
	score := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			score++
		}
	}
	return score
}

// Match returns the highest scoring producer for genre. Equal scores keep
// input order. When nobody scores, a producer is drawn uniformly with rng.
// Producers in exclude are never returned. Match returns nil when no
// candidate remains.
func Match(genre string, producers []models.Producer, exclude []uuid.UUID, rng *rand.Rand) *models.Producer {
	candidates := make([]models.Producer, 0, len(producers))
	for _, p := range producers {
		if !slices.Contains(exclude, p.ID) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	keywords := Keywords(genre)
	scores := make(map[uuid.UUID]int, len(candidates))
	for _, p := range candidates {
		scores[p.ID] = Score(keywords, p.Genres)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return scores[candidates[i].ID] > scores[candidates[j].ID]
	})

	if scores[candidates[0].ID] > 0 {
		return &candidates[0]
	}
	return &candidates[rng.Intn(len(candidates))]
}
