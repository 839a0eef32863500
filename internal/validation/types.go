package validation

import "github.com/number27/premiumbot/internal/catalog"

// CreateOrderRequest is the payload for POST /create_order.
// Amount is a pointer so that 0 (a code redemption) still counts as
// present; absent and zero must stay distinguishable.
type CreateOrderRequest struct {
	RequesterID      string           `json:"requester_id" validate:"required"`
	Amount           *int64           `json:"amount" validate:"required,gte=0"`
	Duration         catalog.Duration `json:"duration" validate:"required"`
	PlanID           string           `json:"plan_id" validate:"required"`
	IsCodeRedemption *bool            `json:"is_code_redemption" validate:"required"`
}

// PaymentNotification is the payload for POST /verify_payment and
// POST /direct_payment, sent by the in-game payment detector.
type PaymentNotification struct {
	PayerName string `json:"payer_name" validate:"required"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Recipient string `json:"recipient" validate:"required"`
}

// RedeemCodeRequest is the payload for POST /redeem_code.
type RedeemCodeRequest struct {
	RequesterID string           `json:"requester_id" validate:"required"`
	Code        string           `json:"code" validate:"required"`
	PlanID      string           `json:"plan_id" validate:"required"`
	Duration    catalog.Duration `json:"duration" validate:"required"`
}
