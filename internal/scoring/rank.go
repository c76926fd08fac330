package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/noah-isme/olympiad-api/internal/tables"
)

// Labels used when a score cannot be placed.
const (
	Unranked     = "Unranked"
	CategoryGold = "Gold"
)

// Rank is a 1-based position. The zero value means unranked and serialises as "Unranked".
type Rank int

// Ranked reports whether the rank holds a position.
func (r Rank) Ranked() bool {
	return r > 0
}

// MarshalJSON writes the position as a number or the Unranked label.
func (r Rank) MarshalJSON() ([]byte, error) {
	if !r.Ranked() {
		return json.Marshal(Unranked)
	}
	return json.Marshal(int(r))
}

// UnmarshalJSON accepts a number or any string label, which decodes as unranked.
func (r *Rank) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || trimmed[0] == '"' {
		*r = 0
		return nil
	}
	var n int
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("decode rank: %w", err)
	}
	*r = Rank(n)
	return nil
}

// Placement is a resolved rank and its category.
type Placement struct {
	Rank     Rank   `json:"rank"`
	Category string `json:"category"`
}

// UnrankedPlacement is returned when a score has no bucket.
func UnrankedPlacement() Placement {
	return Placement{Category: Unranked}
}

// ScopePlacements are the table-driven placements for one test type.
type ScopePlacements struct {
	Global  Placement `json:"global"`
	Country Placement `json:"country"`
	State   Placement `json:"state"`
}

// Resolver maps scores onto rank buckets. Ranks inside a bucket are drawn uniformly at
// random, so repeated calls with the same score may differ.
type Resolver struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewResolver builds a resolver over src. A nil src is seeded from the clock.
func NewResolver(src rand.Source) *Resolver {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>17|1)
	}
	return &Resolver{rng: rand.New(src)}
}

// Resolve places score against a single scope table.
func (r *Resolver) Resolve(score, max int, table []tables.RankEntry) Placement {
	if score == max {
		return Placement{Rank: 1, Category: CategoryGold}
	}

	for _, entry := range table {
		if entry.Score != score {
			continue
		}
		start, end := entry.Bounds()
		return Placement{Rank: Rank(start + r.IntN(end-start+1)), Category: entry.Category}
	}

	return UnrankedPlacement()
}

// ResolveScopes places score against the global, country and state tables of a test type.
func (r *Resolver) ResolveScopes(score int, test tables.TestTable) ScopePlacements {
	return ScopePlacements{
		Global:  r.Resolve(score, test.MaxScore, test.Global),
		Country: r.Resolve(score, test.MaxScore, test.Country),
		State:   r.Resolve(score, test.MaxScore, test.State),
	}
}

// IntN draws a number in [0,n) from the resolver's source.
func (r *Resolver) IntN(n int) int {
	if n <= 1 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}
