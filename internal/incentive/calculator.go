// Package incentive computes coordinator payouts from the category and engagement tables.
package incentive

import (
	"github.com/noah-isme/olympiad-api/internal/tables"
)

// EligibleStatus is the single payment status whose students earn an incentive.
const EligibleStatus = "paid"

// Eligible reports whether a student with the given payment status counts towards payouts.
func Eligible(paymentStatus string) bool {
	return paymentStatus == EligibleStatus
}

// Result is the full incentive breakdown for one coordinator.
type Result struct {
	Category             string `json:"category"`
	PerStudentShare      int    `json:"perStudentShare"`
	TotalRegistrations   int    `json:"totalRegistrations"`
	TotalIncentives      int    `json:"totalIncentives"`
	TotalEngagementBonus int    `json:"totalEngagementBonus"`
	TotalEarnings        int    `json:"totalEarnings"`
}

// Calculator applies the reference tables. It holds no mutable state.
type Calculator struct {
	categories []tables.CategoryTier
	bonuses    []tables.EngagementTier
}

// NewCalculator builds a calculator over validated tables.
func NewCalculator(t *tables.Tables) *Calculator {
	return &Calculator{categories: t.Categories, bonuses: t.EngagementBonuses}
}

// Tier returns the first tier whose range contains count, or the lowest tier when none does.
func (c *Calculator) Tier(count int) tables.CategoryTier {
	for _, tier := range c.categories {
		if tier.Contains(count) {
			return tier
		}
	}
	return c.categories[0]
}

// Bonus returns the engagement bonus for a student who attempted the given number of
// practice tests. Tiers are checked from the highest threshold down.
func (c *Calculator) Bonus(attempted int) int {
	for _, tier := range c.bonuses {
		if attempted >= tier.Threshold {
			return tier.Bonus
		}
	}
	return 0
}

// Calculate computes the payout for eligible students, given as their practice test counts.
func (c *Calculator) Calculate(practiceTests []int) Result {
	count := len(practiceTests)
	if count == 0 {
		return Result{Category: c.categories[0].Name}
	}

	tier := c.Tier(count)
	bonus := 0
	for _, attempted := range practiceTests {
		bonus += c.Bonus(attempted)
	}

	base := count * tier.PerStudentShare
	return Result{
		Category:             tier.Name,
		PerStudentShare:      tier.PerStudentShare,
		TotalRegistrations:   count,
		TotalIncentives:      base,
		TotalEngagementBonus: bonus,
		TotalEarnings:        base + bonus,
	}
}
