// Package catalog holds the static premium plan table and the logic
// that maps payment amounts back onto plans.
package catalog

import (
	"errors"
	"fmt"
	"math/rand"
)

// PlanUnknown is returned when no plan's price range contains an amount.
const PlanUnknown = "Unknown"

// Plan is one premium tier: an inclusive price range and the access it buys.
type Plan struct {
	ID       string
	MinPrice int64
	MaxPrice int64
	Duration Duration
}

// Catalog is an ordered plan list. Classification walks it in
// declaration order and the first matching range wins.
type Catalog struct {
	plans []Plan
}

// defaultPlans mirrors the price table admins publish in-game.
// 90d and Items-Script deliberately share a range; 90d is declared
// first and therefore wins classification for that range.
var defaultPlans = []Plan{
	{ID: "1d", MinPrice: 19_000_000, MaxPrice: 20_000_000, Duration: Days(1)},
	{ID: "7d", MinPrice: 49_000_000, MaxPrice: 50_000_000, Duration: Days(7)},
	{ID: "30d", MinPrice: 119_000_000, MaxPrice: 120_000_000, Duration: Days(30)},
	{ID: "90d", MinPrice: 199_000_000, MaxPrice: 200_000_000, Duration: Days(90)},
	{ID: "AntiAfk-Script", MinPrice: 99_000_000, MaxPrice: 100_000_000, Duration: Perk("antiafk")},
	{ID: "Items-Script", MinPrice: 199_000_000, MaxPrice: 200_000_000, Duration: Perk("items")},
}

// Default returns the built-in plan catalog.
func Default() *Catalog {
	return &Catalog{plans: defaultPlans}
}

// New builds a catalog from an explicit plan list, preserving order.
func New(plans []Plan) *Catalog {
	cp := make([]Plan, len(plans))
	copy(cp, plans)
	return &Catalog{plans: cp}
}

// Plans returns the plans in declaration order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// Lookup returns the plan with the given id.
func (c *Catalog) Lookup(id string) (Plan, bool) {
	for _, p := range c.plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Classify finds the plan whose inclusive price range contains amount.
// The first match in declaration order wins. Amounts outside every
// range classify as PlanUnknown with a one-day duration.
func (c *Catalog) Classify(amount int64) (planID string, d Duration) {
	for _, p := range c.plans {
		if amount >= p.MinPrice && amount <= p.MaxPrice {
			return p.ID, p.Duration
		}
	}
	return PlanUnknown, Days(1)
}

// GeneratePrice draws a uniform random amount from the plan's
// inclusive range. Near-unique amounts are what lets the payment
// matcher tell simultaneous buyers of the same plan apart.
func (c *Catalog) GeneratePrice(planID string) (int64, error) {
	p, ok := c.Lookup(planID)
	if !ok {
		return 0, fmt.Errorf("unknown plan %q", planID)
	}
	return p.MinPrice + rand.Int63n(p.MaxPrice-p.MinPrice+1), nil
}

var errOverlap = errors.New("catalog: overlapping plan price ranges")

// Validate checks the catalog invariants: every range is well-formed
// and no two plans partially overlap. Two plans declaring the exact
// same range are tolerated (a published alias pair; declaration order
// decides classification), any other overlap is a configuration error.
func (c *Catalog) Validate() error {
	for _, p := range c.plans {
		if p.ID == "" || p.ID == PlanUnknown {
			return fmt.Errorf("catalog: reserved or empty plan id %q", p.ID)
		}
		if p.MinPrice > p.MaxPrice || p.MinPrice < 0 {
			return fmt.Errorf("catalog: plan %s has invalid range [%d, %d]", p.ID, p.MinPrice, p.MaxPrice)
		}
	}
	for i := 0; i < len(c.plans); i++ {
		for j := i + 1; j < len(c.plans); j++ {
			a, b := c.plans[i], c.plans[j]
			if a.ID == b.ID {
				return fmt.Errorf("catalog: duplicate plan id %q", a.ID)
			}
			if a.MinPrice == b.MinPrice && a.MaxPrice == b.MaxPrice {
				continue
			}
			if a.MinPrice <= b.MaxPrice && b.MinPrice <= a.MaxPrice {
				return fmt.Errorf("%w: %s and %s", errOverlap, a.ID, b.ID)
			}
		}
	}
	return nil
}
