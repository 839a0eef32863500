// Package notify decouples order verification from Discord side
// effects. The core enqueues events; a dispatcher goroutine drains
// the queue and calls the access-granting and messaging
// collaborators. Delivery failures are logged and swallowed — a
// verification is final once persisted, whether or not the role grant
// or DM went through.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/number27/premiumbot/internal/catalog"
)

// Kind discriminates what an event announces.
type Kind string

const (
	// KindVerified: an order was verified; grant access and confirm.
	KindVerified Kind = "verified"
	// KindOrderPlaced: a pending order wants an admin verification
	// prompt in the verification channel.
	KindOrderPlaced Kind = "order_placed"
	// KindDirectPayment: a payment arrived with no matching order;
	// admins must link an identity manually.
	KindDirectPayment Kind = "direct_payment"
)

// Event carries everything the collaborators need; it is a value so
// the dispatcher never reaches back into the stores.
type Event struct {
	Kind           Kind
	OrderID        string
	RequesterID    string
	PlanID         string
	Duration       catalog.Duration
	Amount         int64
	PayerName      string
	VerifiedBy     string
	CodeRedemption bool
}

// AccessGranter assigns the premium role to a platform identity.
type AccessGranter interface {
	GrantAccess(requesterID string) error
}

// Messenger delivers user-facing and admin-facing messages.
type Messenger interface {
	// SendConfirmation DMs the requester that their order is verified.
	SendConfirmation(ev Event) error
	// AnnounceOrder posts a verification prompt for admins.
	AnnounceOrder(ev Event) error
}

// Queue is the buffered outbound event queue. Enqueue never blocks:
// if the buffer is full the event is dropped and logged, which for
// this system only delays an admin prompt or a courtesy DM.
type Queue struct {
	ch     chan Event
	logger *zap.Logger
}

// NewQueue builds a queue with the given buffer size.
func NewQueue(size int, logger *zap.Logger) *Queue {
	if size < 1 {
		size = 64
	}
	return &Queue{ch: make(chan Event, size), logger: logger}
}

// Enqueue offers an event to the queue without blocking.
func (q *Queue) Enqueue(ev Event) {
	select {
	case q.ch <- ev:
	default:
		q.logger.Warn("notification queue full, dropping event",
			zap.String("kind", string(ev.Kind)),
			zap.String("order_id", ev.OrderID))
	}
}

// Drain removes and returns everything currently queued without
// blocking. Tests and shutdown paths use it; the dispatcher does not.
func (q *Queue) Drain() []Event {
	out := []Event{}
	for {
		select {
		case ev := <-q.ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// Dispatcher drains a Queue and invokes the collaborators.
type Dispatcher struct {
	queue     *Queue
	granter   AccessGranter
	messenger Messenger
	logger    *zap.Logger
}

// NewDispatcher wires a dispatcher to its collaborators.
func NewDispatcher(q *Queue, g AccessGranter, m Messenger, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{queue: q, granter: g, messenger: m, logger: logger}
}

// Run drains the queue until ctx is cancelled. Collaborator errors
// are logged, never retried, and never propagate.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.queue.ch:
			d.handle(ev)
		}
	}
}

func (d *Dispatcher) handle(ev Event) {
	switch ev.Kind {
	case KindVerified:
		if err := d.granter.GrantAccess(ev.RequesterID); err != nil {
			d.logger.Error("role grant failed",
				zap.String("order_id", ev.OrderID),
				zap.String("requester_id", ev.RequesterID),
				zap.Error(err))
		}
		if err := d.messenger.SendConfirmation(ev); err != nil {
			d.logger.Warn("confirmation delivery failed",
				zap.String("order_id", ev.OrderID),
				zap.String("requester_id", ev.RequesterID),
				zap.Error(err))
		}
	case KindOrderPlaced, KindDirectPayment:
		if err := d.messenger.AnnounceOrder(ev); err != nil {
			d.logger.Warn("verification announcement failed",
				zap.String("order_id", ev.OrderID),
				zap.Error(err))
		}
	default:
		d.logger.Warn("unknown notification kind", zap.String("kind", string(ev.Kind)))
	}
}
