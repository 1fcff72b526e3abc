package parsehub

import (
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

// names scoring below this are never suggested
const minSuggestionSimilarity = 0.8

type suggestion struct {
	name       string
	similarity float64
}

// SuggestNames returns up to `limit` country names that look like
// `query`, most similar first.
func (s *Snapshot) SuggestNames(query string, limit int) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return nil
	}

	var candidates []suggestion
	for _, record := range s.Countries {
		name, ok := record.Field(FieldName)
		if !ok || name == "" {
			continue
		}
		similarity := matchr.JaroWinkler(query, strings.ToLower(name), false)
		if similarity < minSuggestionSimilarity {
			continue
		}
		candidates = append(candidates, suggestion{name: name, similarity: similarity})
	}

	slices.SortStableFunc(candidates, func(a, b suggestion) int {
		if a.similarity > b.similarity {
			return -1
		}
		if a.similarity < b.similarity {
			return 1
		}
		return 0
	})

	var result []string
	for _, c := range candidates {
		if len(result) == limit {
			break
		}
		result = append(result, c.name)
	}
	return result
}
