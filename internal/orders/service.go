package orders

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/number27/premiumbot/internal/catalog"
	"github.com/number27/premiumbot/internal/codes"
	"github.com/number27/premiumbot/internal/notify"
)

// Service coordinates the order and code lifecycles: purchase intents
// in, payment signals matched, admin confirmations finalized. All
// Discord side effects leave through the notify queue; the service
// never blocks on delivery.
type Service struct {
	store   *Store
	codes   *codes.Store
	catalog *catalog.Catalog
	queue   *notify.Queue
	logger  *zap.Logger
	nowFunc func() time.Time
}

// NewService wires the coordinator to its stores and the outbound queue.
func NewService(store *Store, codeStore *codes.Store, cat *catalog.Catalog, queue *notify.Queue, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		codes:   codeStore,
		catalog: cat,
		queue:   queue,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// CreatePurchase opens a pending order for the requester, drawing a
// near-unique price from the plan's range so the matcher can later
// pair the incoming transfer with this exact order.
func (s *Service) CreatePurchase(requesterID, planID string) (Order, error) {
	plan, ok := s.catalog.Lookup(planID)
	if !ok {
		return Order{}, fmt.Errorf("unknown plan %q", planID)
	}
	amount, err := s.catalog.GeneratePrice(planID)
	if err != nil {
		return Order{}, err
	}
	o := Order{
		OrderID:     NewOrderID(KindPurchase),
		RequesterID: requesterID,
		Amount:      amount,
		PlanID:      plan.ID,
		Duration:    plan.Duration,
		Status:      StatusPending,
	}
	o, err = s.store.Create(o)
	if err != nil {
		return Order{}, err
	}
	s.logger.Info("purchase order created",
		zap.String("order_id", o.OrderID),
		zap.String("plan_id", o.PlanID),
		zap.Int64("amount", o.Amount))
	s.queue.Enqueue(notify.Event{
		Kind:        notify.KindOrderPlaced,
		OrderID:     o.OrderID,
		RequesterID: o.RequesterID,
		PlanID:      o.PlanID,
		Duration:    o.Duration,
		Amount:      o.Amount,
	})
	return o, nil
}

// CreateOrder records an externally specified order (the create_order
// API). The caller supplies every field; the order starts pending.
func (s *Service) CreateOrder(requesterID string, amount int64, planID string, d catalog.Duration, codeRedemption bool) (Order, error) {
	o := Order{
		OrderID:          NewOrderID(KindPurchase),
		RequesterID:      requesterID,
		Amount:           amount,
		PlanID:           planID,
		Duration:         d,
		Status:           StatusPending,
		IsCodeRedemption: codeRedemption,
	}
	o, err := s.store.Create(o)
	if err != nil {
		return Order{}, err
	}
	s.logger.Info("order created",
		zap.String("order_id", o.OrderID),
		zap.String("requester_id", requesterID),
		zap.Int64("amount", amount))
	return o, nil
}

// MatchPayment runs the order matcher for an in-game transfer.
func (s *Service) MatchPayment(payerName string, amount int64) (Order, error) {
	o, err := s.store.MatchPayment(amount, payerName)
	if err != nil {
		return Order{}, err
	}
	s.logger.Info("payment matched",
		zap.String("order_id", o.OrderID),
		zap.Int64("amount", amount),
		zap.String("payer", payerName))
	return o, nil
}

// DirectPayment records a transfer that matched no pending order: a
// fresh order born paid, plan classified from the amount, requester
// unknown until an admin links one.
func (s *Service) DirectPayment(payerName string, amount int64) (Order, error) {
	planID, d := s.catalog.Classify(amount)
	now := s.nowFunc().UTC()
	o := Order{
		OrderID:                 NewOrderID(KindDirect),
		RequesterID:             UnknownRequester,
		Amount:                  amount,
		PlanID:                  planID,
		Duration:                d,
		Status:                  StatusPaid,
		PaidAt:                  &now,
		PayerDisplayName:        payerName,
		NeedsManualVerification: true,
	}
	o, err := s.store.Create(o)
	if err != nil {
		return Order{}, err
	}
	s.logger.Info("direct payment recorded",
		zap.String("order_id", o.OrderID),
		zap.String("plan_id", planID),
		zap.Int64("amount", amount),
		zap.String("payer", payerName))
	s.queue.Enqueue(notify.Event{
		Kind:      notify.KindDirectPayment,
		OrderID:   o.OrderID,
		PlanID:    planID,
		Duration:  d,
		Amount:    amount,
		PayerName: payerName,
	})
	return o, nil
}

// Verify finalizes an order on an admin confirmation. Verification is
// rejected for terminal orders and deferred while the requester
// identity is still unknown. Once the transition is persisted the
// role grant and confirmation DM are enqueued; their failure cannot
// undo a verification.
func (s *Service) Verify(orderID, adminID string) (Order, error) {
	o, err := s.store.Update(orderID, func(o *Order) error {
		if o.Status == StatusVerified {
			return ErrAlreadyVerified
		}
		if o.RequesterID == "" || o.RequesterID == UnknownRequester {
			return ErrIdentityUnknown
		}
		now := s.nowFunc().UTC()
		if o.PaidAt == nil {
			o.PaidAt = &now
		}
		o.Status = StatusVerified
		o.VerifiedAt = &now
		o.VerifiedBy = adminID
		o.NeedsManualVerification = false
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	s.logger.Info("order verified",
		zap.String("order_id", o.OrderID),
		zap.String("verified_by", adminID))
	s.enqueueVerified(o)
	return o, nil
}

// ManualVerify links a requester identity to the order (covering
// direct payments recorded against an unknown payer) and verifies it.
func (s *Service) ManualVerify(orderID, adminID, requesterID string) (Order, error) {
	if requesterID == "" || requesterID == UnknownRequester {
		return Order{}, ErrIdentityUnknown
	}
	_, err := s.store.Update(orderID, func(o *Order) error {
		if o.Status == StatusVerified {
			return ErrAlreadyVerified
		}
		o.RequesterID = requesterID
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return s.Verify(orderID, adminID)
}

// RedeemCode consumes a code and records the matching order directly
// in verified state. The role grant and DM are enqueued as with any
// verification.
func (s *Service) RedeemCode(requesterID, token string) (Order, codes.Code, error) {
	c, err := s.codes.Redeem(token, requesterID)
	if err != nil {
		return Order{}, codes.Code{}, err
	}
	now := s.nowFunc().UTC()
	o := Order{
		OrderID:          NewOrderID(KindRedeem),
		RequesterID:      requesterID,
		Amount:           0,
		PlanID:           c.PlanID,
		Duration:         c.Duration,
		Status:           StatusVerified,
		IsCodeRedemption: true,
		PaidAt:           &now,
		VerifiedAt:       &now,
		CodeUsed:         c.Code,
	}
	o, err = s.store.Create(o)
	if err != nil {
		// the code is burned but the order failed to persist; surface
		// the error, the admin can manually verify from the code record
		s.logger.Error("redeem order persist failed",
			zap.String("code", c.Code), zap.Error(err))
		return Order{}, codes.Code{}, err
	}
	s.logger.Info("code redeemed",
		zap.String("order_id", o.OrderID),
		zap.String("plan_id", o.PlanID),
		zap.String("requester_id", requesterID))
	s.enqueueVerified(o)
	return o, c, nil
}

// IssueCodes mints codes for a plan, clamped to the per-call cap.
func (s *Service) IssueCodes(planID string, count int, issuer string) ([]codes.Code, error) {
	plan, ok := s.catalog.Lookup(planID)
	if !ok {
		return nil, fmt.Errorf("unknown plan %q", planID)
	}
	return s.codes.Issue(plan.ID, plan.Duration, count, issuer)
}

// AvailableCodes lists unredeemed codes for the admin overview.
func (s *Service) AvailableCodes() []codes.Code {
	return s.codes.Available()
}

// Plans exposes the catalog plans for the command layer.
func (s *Service) Plans() []catalog.Plan {
	return s.catalog.Plans()
}

// GetOrder fetches one order.
func (s *Service) GetOrder(orderID string) (Order, error) {
	return s.store.Get(orderID)
}

func (s *Service) enqueueVerified(o Order) {
	s.queue.Enqueue(notify.Event{
		Kind:           notify.KindVerified,
		OrderID:        o.OrderID,
		RequesterID:    o.RequesterID,
		PlanID:         o.PlanID,
		Duration:       o.Duration,
		Amount:         o.Amount,
		PayerName:      o.PayerDisplayName,
		VerifiedBy:     o.VerifiedBy,
		CodeRedemption: o.IsCodeRedemption,
	})
}
