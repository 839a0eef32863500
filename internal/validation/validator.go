package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with struct-level rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// code redemptions never carry money; a nonzero amount on one is a
	// malformed request, not a discount
	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})

	return v
}

func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)
	if req.IsCodeRedemption == nil || req.Amount == nil {
		return // field-level required rules report these
	}
	if *req.IsCodeRedemption && *req.Amount != 0 {
		sl.ReportError(req.Amount, "amount", "Amount", "redemption_amount_zero", "")
	}
}
