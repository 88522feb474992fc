package searcher

import (
	"context"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/rotisserie/eris"

	"mspro-labs/plage-watch/internal/db"
	"mspro-labs/plage-watch/internal/models"
	"mspro-labs/plage-watch/internal/normalize"
)

// MinScore drops weak matches.
const MinScore = 0.75

// DefaultLimit is the number of results returned when limit <= 0.
const DefaultLimit = 5

// Result holds a single search match.
type Result struct {
	Item  models.BeachRecord
	Score float64
}

// Perform ranks stored beaches against text by name and municipality.
func Perform(ctx context.Context, store db.Store, text string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	query := normalize.Key(text)
	if query == "" {
		return nil, nil
	}

	recs, err := store.All(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "searcher: load beaches")
	}

	var results []Result
	for _, rec := range recs {
		score := Score(query, rec)
		if score >= MinScore {
			results = append(results, Result{Item: rec, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Score compares an already folded query with a record. A query contained in
// the name or municipality scores 1.
func Score(query string, rec models.BeachRecord) float64 {
	var best float64
	for _, field := range []string{rec.Key, normalize.Key(rec.Municipality), normalize.Key(rec.WaterBody)} {
		if field == "" {
			continue
		}
		if strings.Contains(field, query) {
			return 1
		}
		if s := matchr.JaroWinkler(query, field, false); s > best {
			best = s
		}
		// Compare word by word so "barnabe" finds "plage de l'ile saint-barnabe".
		for _, word := range strings.Fields(field) {
			if s := matchr.JaroWinkler(query, word, false); s > best {
				best = s
			}
		}
	}
	return best
}
