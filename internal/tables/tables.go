// Package tables holds the static reference data used by ranking and incentive
// computation. Tables are loaded once at process start and are read-only afterwards.
package tables

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Test types recognised by the olympiad.
const (
	TestMock = "mock"
	TestLive = "live"
)

// DefaultCategory is assigned to coordinators before their first incentive calculation.
const DefaultCategory = "Starter Partner"

// ErrInvalidTables is returned when the reference data violates one of its invariants.
var ErrInvalidTables = errors.New("invalid reference tables")

// CategoryTier maps a paid-student count range to a per-student payout.
type CategoryTier struct {
	Name            string `yaml:"name" json:"name"`
	Min             int    `yaml:"min" json:"min"`
	Max             *int   `yaml:"max,omitempty" json:"max,omitempty"`
	PerStudentShare int    `yaml:"per_student_share" json:"perStudentShare"`
}

// Unbounded reports whether the tier has no upper limit.
func (t CategoryTier) Unbounded() bool {
	return t.Max == nil
}

// Contains reports whether count falls inside the tier's inclusive range.
func (t CategoryTier) Contains(count int) bool {
	if count < t.Min {
		return false
	}
	return t.Max == nil || count <= *t.Max
}

// EngagementTier awards a bonus once a student reaches Threshold practice tests.
type EngagementTier struct {
	Threshold int `yaml:"threshold" json:"threshold"`
	Bonus     int `yaml:"bonus" json:"bonus"`
}

// RankEntry maps an exact score to a rank bucket.
type RankEntry struct {
	Score     int    `yaml:"score" json:"score"`
	RankRange string `yaml:"range" json:"rankRange"`
	Category  string `yaml:"category" json:"category"`

	start int
	end   int
}

// NewRankEntry builds an entry and parses its range.
func NewRankEntry(score int, rankRange, category string) (RankEntry, error) {
	start, end, err := ParseRankRange(rankRange)
	if err != nil {
		return RankEntry{}, err
	}
	return RankEntry{Score: score, RankRange: rankRange, Category: category, start: start, end: end}, nil
}

// Bounds returns the inclusive rank range parsed from RankRange.
func (e RankEntry) Bounds() (int, int) {
	return e.start, e.end
}

// TestTable groups the per-scope rank tables for a single test type.
type TestTable struct {
	MaxScore int         `yaml:"max_score" json:"maxScore"`
	Global   []RankEntry `yaml:"global" json:"global"`
	Country  []RankEntry `yaml:"country" json:"country"`
	State    []RankEntry `yaml:"state" json:"state"`
}

// Tables is the full reference data set.
type Tables struct {
	Categories        []CategoryTier       `yaml:"categories"`
	EngagementBonuses []EngagementTier     `yaml:"engagement_bonuses"`
	Tests             map[string]TestTable `yaml:"tests"`
}

// Load reads and validates the tables file at path.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML reference data, normalises it and validates every invariant.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	if err := t.normalize(); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Test returns the rank tables for the given test type.
func (t *Tables) Test(testType string) (TestTable, bool) {
	table, ok := t.Tests[strings.ToLower(strings.TrimSpace(testType))]
	return table, ok
}

// Category looks up a tier by its display name.
func (t *Tables) Category(name string) (CategoryTier, bool) {
	needle := strings.TrimSpace(name)
	for _, tier := range t.Categories {
		if tier.Name == needle {
			return tier, true
		}
	}
	return CategoryTier{}, false
}

func (t *Tables) normalize() error {
	// highest threshold first, which is the evaluation order
	sort.SliceStable(t.EngagementBonuses, func(i, j int) bool {
		return t.EngagementBonuses[i].Threshold > t.EngagementBonuses[j].Threshold
	})

	for name, test := range t.Tests {
		for _, scope := range []struct {
			label   string
			entries []RankEntry
		}{{"global", test.Global}, {"country", test.Country}, {"state", test.State}} {
			for i := range scope.entries {
				start, end, err := ParseRankRange(scope.entries[i].RankRange)
				if err != nil {
					return fmt.Errorf("%w: %s/%s score %d: %v", ErrInvalidTables, name, scope.label, scope.entries[i].Score, err)
				}
				scope.entries[i].start = start
				scope.entries[i].end = end
			}
		}
	}
	return nil
}

// Validate checks tier partitioning, bonus ordering and rank table consistency.
func (t *Tables) Validate() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("%w: no category tiers", ErrInvalidTables)
	}
	if t.Categories[0].Min < 0 {
		return fmt.Errorf("%w: first tier starts below zero", ErrInvalidTables)
	}
	for i, tier := range t.Categories {
		if strings.TrimSpace(tier.Name) == "" {
			return fmt.Errorf("%w: tier %d has no name", ErrInvalidTables, i)
		}
		if tier.PerStudentShare < 0 {
			return fmt.Errorf("%w: tier %q has a negative payout", ErrInvalidTables, tier.Name)
		}
		last := i == len(t.Categories)-1
		if tier.Max == nil {
			if !last {
				return fmt.Errorf("%w: only the last tier may be unbounded, %q is not last", ErrInvalidTables, tier.Name)
			}
			continue
		}
		if last {
			return fmt.Errorf("%w: last tier %q must be unbounded", ErrInvalidTables, tier.Name)
		}
		if *tier.Max < tier.Min {
			return fmt.Errorf("%w: tier %q has max below min", ErrInvalidTables, tier.Name)
		}
		if next := t.Categories[i+1]; next.Min != *tier.Max+1 {
			return fmt.Errorf("%w: gap or overlap between %q and %q", ErrInvalidTables, tier.Name, next.Name)
		}
	}

	if len(t.EngagementBonuses) == 0 {
		return fmt.Errorf("%w: no engagement bonus tiers", ErrInvalidTables)
	}
	seen := make(map[int]struct{}, len(t.EngagementBonuses))
	for _, tier := range t.EngagementBonuses {
		if tier.Threshold < 0 || tier.Bonus < 0 {
			return fmt.Errorf("%w: engagement tier %d is negative", ErrInvalidTables, tier.Threshold)
		}
		if _, dup := seen[tier.Threshold]; dup {
			return fmt.Errorf("%w: duplicate engagement threshold %d", ErrInvalidTables, tier.Threshold)
		}
		seen[tier.Threshold] = struct{}{}
	}

	for _, required := range []string{TestMock, TestLive} {
		if _, ok := t.Tests[required]; !ok {
			return fmt.Errorf("%w: missing %s rank tables", ErrInvalidTables, required)
		}
	}
	for name, test := range t.Tests {
		if test.MaxScore <= 0 {
			return fmt.Errorf("%w: %s max score must be positive", ErrInvalidTables, name)
		}
		for label, entries := range map[string][]RankEntry{"global": test.Global, "country": test.Country, "state": test.State} {
			if err := validateRankEntries(entries, test.MaxScore); err != nil {
				return fmt.Errorf("%w: %s/%s: %v", ErrInvalidTables, name, label, err)
			}
		}
	}
	return nil
}

func validateRankEntries(entries []RankEntry, max int) error {
	scores := make(map[int]struct{}, len(entries))
	for _, entry := range entries {
		if entry.Score < 0 || entry.Score > max {
			return fmt.Errorf("score %d outside [0,%d]", entry.Score, max)
		}
		if _, dup := scores[entry.Score]; dup {
			return fmt.Errorf("duplicate score %d", entry.Score)
		}
		scores[entry.Score] = struct{}{}
		if strings.TrimSpace(entry.Category) == "" {
			return fmt.Errorf("score %d has no category", entry.Score)
		}
		if entry.start < 1 || entry.end < entry.start {
			return fmt.Errorf("score %d has an empty rank range", entry.Score)
		}
	}
	return nil
}

// ParseRankRange parses the "<start> to <end>" notation used by rank buckets.
func ParseRankRange(raw string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(raw), " to ")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed rank range %q", raw)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed rank range %q: %w", raw, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed rank range %q: %w", raw, err)
	}
	if start < 1 || end < start {
		return 0, 0, fmt.Errorf("rank range %q is empty", raw)
	}
	return start, end, nil
}
