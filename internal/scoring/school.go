package scoring

import (
	"sort"
	"strings"
	"time"
)

// School-scope categories.
const (
	CategorySilver      = "Silver"
	CategoryBronze      = "Bronze"
	CategoryParticipant = "Participant"
)

// CohortMember is one student's attempts of a single test type.
type CohortMember struct {
	ID       string
	Name     string
	Attempts []Attempt
}

// SchoolPlacement is a member's position inside their school cohort.
type SchoolPlacement struct {
	ID         string    `json:"uid"`
	Name       string    `json:"name"`
	TotalMarks int       `json:"totalMarks"`
	LatestAt   time.Time `json:"-"`
	Rank       int       `json:"rank"`
	Category   string    `json:"category"`
}

// Placement converts the school position into the generic rank shape.
func (p SchoolPlacement) Placement() Placement {
	return Placement{Rank: Rank(p.Rank), Category: p.Category}
}

// CategoryForRank bands school ranks: 1-10 Gold, 11-20 Silver, 21-30 Bronze.
func CategoryForRank(rank int) string {
	switch {
	case rank >= 1 && rank <= 10:
		return CategoryGold
	case rank >= 11 && rank <= 20:
		return CategorySilver
	case rank >= 21 && rank <= 30:
		return CategoryBronze
	default:
		return CategoryParticipant
	}
}

// SameSchool compares school names the way cohorts are grouped.
func SameSchool(a, b string) bool {
	na := strings.ToLower(strings.TrimSpace(a))
	return na != "" && na == strings.ToLower(strings.TrimSpace(b))
}

// RankSchool orders a cohort by summed marks and assigns dense ranks. Only attempts that
// carry a timestamp count towards the total. Ties go to the earlier latest attempt, and
// members without any timed attempt sort after those with one.
func RankSchool(members []CohortMember) []SchoolPlacement {
	placements := make([]SchoolPlacement, 0, len(members))
	for _, member := range members {
		p := SchoolPlacement{ID: member.ID, Name: member.Name}
		for _, attempt := range member.Attempts {
			if !attempt.HasTimestamp() {
				continue
			}
			p.TotalMarks += attempt.Score
			if attempt.Timestamp.After(p.LatestAt) {
				p.LatestAt = attempt.Timestamp
			}
		}
		placements = append(placements, p)
	}

	sort.SliceStable(placements, func(i, j int) bool {
		a, b := placements[i], placements[j]
		if a.TotalMarks != b.TotalMarks {
			return a.TotalMarks > b.TotalMarks
		}
		aTimed, bTimed := !a.LatestAt.IsZero(), !b.LatestAt.IsZero()
		switch {
		case aTimed && bTimed && !a.LatestAt.Equal(b.LatestAt):
			return a.LatestAt.Before(b.LatestAt)
		case aTimed != bTimed:
			return aTimed
		}
		return a.ID < b.ID
	})

	rank := 0
	for i := range placements {
		current := &placements[i]
		if i == 0 {
			rank = 1
		} else {
			prev := placements[i-1]
			if current.TotalMarks != prev.TotalMarks || laterThan(current.LatestAt, prev.LatestAt) {
				rank = i + 1
			}
		}
		current.Rank = rank
		current.Category = CategoryForRank(rank)
	}

	return placements
}

// laterThan treats a missing timestamp as the earliest possible instant.
func laterThan(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	return b.IsZero() || a.After(b)
}
