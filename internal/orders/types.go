package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/number27/premiumbot/internal/catalog"
)

// Order statuses. The machine is linear: pending -> paid -> verified,
// with code redemptions created directly in verified. verified is
// terminal.
const (
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusVerified = "verified"
)

// UnknownRequester marks an order whose payer identity has not been
// linked to a platform account yet (direct payments).
const UnknownRequester = "unknown"

// Order id prefixes keep the origin of an order readable in the
// snapshot and in admin embeds.
const (
	KindPurchase = "order"
	KindDirect   = "direct"
	KindRedeem   = "redeem"
)

// Order is one purchase or redemption attempt and its verification
// progress. Records are created once, mutated in place on each
// transition, and never deleted.
type Order struct {
	OrderID                 string           `json:"order_id"`
	RequesterID             string           `json:"requester_id"`
	Amount                  int64            `json:"amount"`
	PlanID                  string           `json:"plan_id"`
	Duration                catalog.Duration `json:"duration"`
	Status                  string           `json:"status"`
	IsCodeRedemption        bool             `json:"is_code_redemption"`
	CreatedAt               time.Time        `json:"created_at"`
	PaidAt                  *time.Time       `json:"paid_at,omitempty"`
	VerifiedAt              *time.Time       `json:"verified_at,omitempty"`
	VerifiedBy              string           `json:"verified_by,omitempty"`
	PayerDisplayName        string           `json:"payer_display_name,omitempty"`
	NeedsManualVerification bool             `json:"needs_manual_verification,omitempty"`
	CodeUsed                string           `json:"code_used,omitempty"`
}

// NewOrderID builds a collision-resistant id with a readable prefix.
func NewOrderID(kind string) string {
	return kind + "_" + uuid.NewString()
}
