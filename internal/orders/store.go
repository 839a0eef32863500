package orders

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/number27/premiumbot/internal/storage"
)

var (
	// ErrNotFound: no order with that id.
	ErrNotFound = errors.New("order not found")
	// ErrNoMatch: no pending order matches the notified amount.
	ErrNoMatch = errors.New("no matching pending order")
	// ErrAlreadyVerified: the order is terminal; re-verification is a no-op.
	ErrAlreadyVerified = errors.New("order already verified")
	// ErrIdentityUnknown: verification needs a linked requester identity first.
	ErrIdentityUnknown = errors.New("requester identity unknown")
)

// Store owns the order collection. All mutations are serialized
// behind the store mutex and rewrite the whole snapshot atomically,
// so concurrent writers (HTTP handlers, gateway events) can never
// lose each other's updates.
type Store struct {
	mu      sync.Mutex
	path    string
	snap    map[string]*Order
	nowFunc func() time.Time
}

// Open loads (or initializes) the order snapshot at path.
func Open(path string) (*Store, error) {
	s := &Store{path: path, snap: map[string]*Order{}, nowFunc: time.Now}
	if _, err := storage.Load(path, &s.snap); err != nil {
		return nil, err
	}
	return s, nil
}

// Create persists a new order and returns the stored record. The id
// must be unset or unused.
func (s *Store) Create(o Order) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.OrderID == "" {
		o.OrderID = NewOrderID(KindPurchase)
	}
	if _, exists := s.snap[o.OrderID]; exists {
		return Order{}, errors.New("order id already exists")
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.nowFunc().UTC()
	}
	s.snap[o.OrderID] = &o
	if err := storage.Save(s.path, s.snap); err != nil {
		delete(s.snap, o.OrderID)
		return Order{}, err
	}
	return o, nil
}

// Get returns a copy of the order with the given id.
func (s *Store) Get(orderID string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.snap[orderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	return *o, nil
}

// Update applies mutate to the stored order under the store lock and
// persists the result. If mutate returns an error nothing is written.
func (s *Store) Update(orderID string, mutate func(*Order) error) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(orderID, mutate)
}

func (s *Store) updateLocked(orderID string, mutate func(*Order) error) (Order, error) {
	o, ok := s.snap[orderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	prev := *o
	if err := mutate(o); err != nil {
		*o = prev
		return Order{}, err
	}
	if err := storage.Save(s.path, s.snap); err != nil {
		*o = prev
		return Order{}, err
	}
	return *o, nil
}

// ListPending returns pending orders matching pred (nil matches all),
// oldest first.
func (s *Store) ListPending(pred func(Order) bool) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Order{}
	for _, o := range s.snap {
		if o.Status != StatusPending {
			continue
		}
		if pred == nil || pred(*o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// All returns every order, oldest first.
func (s *Store) All() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, 0, len(s.snap))
	for _, o := range s.snap {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// MatchPayment pairs a payment notification with a pending order by
// exact amount. Only pending, non-code-redemption orders qualify; the
// oldest match wins. On match the order moves to paid with paid_at
// and the payer's display name stamped. The scan and the transition
// share one lock acquisition so two notifications for the same amount
// cannot claim the same order.
func (s *Store) MatchPayment(amount int64, payerName string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := []*Order{}
	for _, o := range s.snap {
		if o.Status == StatusPending && !o.IsCodeRedemption && o.Amount == amount {
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return Order{}, ErrNoMatch
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	matched := candidates[0]
	return s.updateLocked(matched.OrderID, func(o *Order) error {
		now := s.nowFunc().UTC()
		o.Status = StatusPaid
		o.PaidAt = &now
		if payerName != "" {
			o.PayerDisplayName = payerName
		}
		return nil
	})
}
