package orders

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/number27/premiumbot/internal/catalog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "orders.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func pendingOrder(amount int64) Order {
	return Order{
		RequesterID: "user-1",
		Amount:      amount,
		PlanID:      "7d",
		Duration:    catalog.Days(7),
		Status:      StatusPending,
	}
}

func TestCreateAndGet(t *testing.T) {
	s := openTestStore(t)
	o, err := s.Create(pendingOrder(49_500_000))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.OrderID == "" || o.CreatedAt.IsZero() {
		t.Fatalf("created order missing id/timestamp: %+v", o)
	}
	got, err := s.Get(o.OrderID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, o) {
		t.Fatalf("Get = %+v, want %+v", got, o)
	}
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get("order_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get = %v, want ErrNotFound", err)
	}
}

func TestOrderIDsDoNotCollide(t *testing.T) {
	s := openTestStore(t)
	// the historical timestamp ids collided within one clock tick;
	// rapid creation must yield distinct ids
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		o, err := s.Create(pendingOrder(int64(20_000_000 + i)))
		if err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
		if seen[o.OrderID] {
			t.Fatalf("duplicate order id %s", o.OrderID)
		}
		seen[o.OrderID] = true
	}
}

func TestUpdateMutationErrorLeavesRecordUnchanged(t *testing.T) {
	s := openTestStore(t)
	o, _ := s.Create(pendingOrder(49_500_000))

	boom := errors.New("boom")
	if _, err := s.Update(o.OrderID, func(u *Order) error {
		u.Status = StatusVerified
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("Update = %v, want boom", err)
	}
	got, _ := s.Get(o.OrderID)
	if got.Status != StatusPending {
		t.Fatalf("record changed despite mutation error: %+v", got)
	}
}

func TestMatchPaymentTransitionsToPaid(t *testing.T) {
	s := openTestStore(t)
	o, _ := s.Create(pendingOrder(49_500_000))

	matched, err := s.MatchPayment(49_500_000, "Steve")
	if err != nil {
		t.Fatalf("MatchPayment: %v", err)
	}
	if matched.OrderID != o.OrderID {
		t.Fatalf("matched %s, want %s", matched.OrderID, o.OrderID)
	}
	if matched.Status != StatusPaid || matched.PaidAt == nil {
		t.Fatalf("order not stamped paid: %+v", matched)
	}
	if matched.PayerDisplayName != "Steve" {
		t.Fatalf("payer name not stamped: %+v", matched)
	}
}

func TestMatchPaymentNoMatch(t *testing.T) {
	s := openTestStore(t)
	s.Create(pendingOrder(49_500_000))
	if _, err := s.MatchPayment(49_500_001, "Steve"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("MatchPayment = %v, want ErrNoMatch", err)
	}
}

func TestMatchPaymentIgnoresNonPendingAndCodeRedemptions(t *testing.T) {
	s := openTestStore(t)

	paid := pendingOrder(49_500_000)
	paid.Status = StatusPaid
	s.Create(paid)

	verified := pendingOrder(49_500_000)
	verified.Status = StatusVerified
	s.Create(verified)

	redemption := pendingOrder(49_500_000)
	redemption.IsCodeRedemption = true
	s.Create(redemption)

	if _, err := s.MatchPayment(49_500_000, "Steve"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("MatchPayment = %v, want ErrNoMatch", err)
	}
}

func TestMatchPaymentNeverRematches(t *testing.T) {
	s := openTestStore(t)
	s.Create(pendingOrder(49_500_000))

	if _, err := s.MatchPayment(49_500_000, "Steve"); err != nil {
		t.Fatalf("first match: %v", err)
	}
	if _, err := s.MatchPayment(49_500_000, "Alex"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("second match = %v, want ErrNoMatch", err)
	}
}

func TestMatchPaymentOldestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	older := pendingOrder(49_500_000)
	older.CreatedAt = base
	older, _ = s.Create(older)

	newer := pendingOrder(49_500_000)
	newer.CreatedAt = base.Add(time.Minute)
	s.Create(newer)

	matched, err := s.MatchPayment(49_500_000, "Steve")
	if err != nil {
		t.Fatal(err)
	}
	if matched.OrderID != older.OrderID {
		t.Fatalf("matched %s, want oldest %s", matched.OrderID, older.OrderID)
	}
}

func TestListPending(t *testing.T) {
	s := openTestStore(t)
	s.Create(pendingOrder(49_500_000))
	paid := pendingOrder(119_500_000)
	paid.Status = StatusPaid
	s.Create(paid)

	all := s.ListPending(nil)
	if len(all) != 1 || all[0].Amount != 49_500_000 {
		t.Fatalf("ListPending = %+v", all)
	}
	none := s.ListPending(func(o Order) bool { return o.Amount > 100_000_000 })
	if len(none) != 0 {
		t.Fatalf("predicate ignored: %+v", none)
	}
}

func TestReloadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := s.Create(pendingOrder(49_500_000))
	direct := Order{
		OrderID:                 NewOrderID(KindDirect),
		RequesterID:             UnknownRequester,
		Amount:                  150_000_000,
		PlanID:                  catalog.PlanUnknown,
		Duration:                catalog.Days(1),
		Status:                  StatusPaid,
		PayerDisplayName:        "Steve",
		NeedsManualVerification: true,
	}
	direct, _ = s.Create(direct)

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	for _, want := range []Order{a, direct} {
		got, err := reopened.Get(want.OrderID)
		if err != nil {
			t.Fatalf("Get %s after reload: %v", want.OrderID, err)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Fatalf("created_at drifted: %v != %v", got.CreatedAt, want.CreatedAt)
		}
		got.CreatedAt = want.CreatedAt
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("reload mismatch:\n got %+v\nwant %+v", got, want)
		}
	}
}
