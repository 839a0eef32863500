package codes

import (
	"time"

	"github.com/number27/premiumbot/internal/catalog"
)

// Alphabet excludes visually confusable characters (I, O, 0, 1) so a
// code survives being read aloud or retyped from a screenshot.
const (
	Alphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	TokenLen   = 10
	MaxPerCall = 50
)

// Code is a single-use token that grants a plan without payment.
// Redemption is monotonic: once redeemed, never un-redeemed.
type Code struct {
	Code       string           `json:"code"`
	PlanID     string           `json:"plan_id"`
	Duration   catalog.Duration `json:"duration"`
	CreatedAt  time.Time        `json:"created_at"`
	CreatedBy  string           `json:"created_by"`
	Redeemed   bool             `json:"redeemed"`
	RedeemedBy string           `json:"redeemed_by,omitempty"`
	RedeemedAt *time.Time       `json:"redeemed_at,omitempty"`
}
