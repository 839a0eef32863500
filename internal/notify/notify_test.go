package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeCollaborator struct {
	mu         sync.Mutex
	granted    []string
	confirmed  []Event
	announced  []Event
	grantErr   error
	confirmErr error
}

func (f *fakeCollaborator) GrantAccess(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.granted = append(f.granted, id)
	return f.grantErr
}

func (f *fakeCollaborator) SendConfirmation(ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, ev)
	return f.confirmErr
}

func (f *fakeCollaborator) AnnounceOrder(ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.announced = append(f.announced, ev)
	return nil
}

func (f *fakeCollaborator) counts() (granted, confirmed, announced int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.granted), len(f.confirmed), len(f.announced)
}

func runDispatcher(t *testing.T, f *fakeCollaborator, events ...Event) {
	t.Helper()
	q := NewQueue(16, zap.NewNop())
	d := NewDispatcher(q, f, f, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	for _, ev := range events {
		q.Enqueue(ev)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		granted, confirmed, announced := f.counts()
		if granted+confirmed+announced >= expectedCalls(events) || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}

func expectedCalls(events []Event) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == KindVerified {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func TestVerifiedEventGrantsAndConfirms(t *testing.T) {
	f := &fakeCollaborator{}
	runDispatcher(t, f, Event{Kind: KindVerified, OrderID: "order_1", RequesterID: "u1"})

	granted, confirmed, _ := f.counts()
	if granted != 1 || f.granted[0] != "u1" {
		t.Fatalf("granted = %v", f.granted)
	}
	if confirmed != 1 {
		t.Fatalf("confirmed = %d, want 1", confirmed)
	}
}

func TestAnnouncementEvents(t *testing.T) {
	f := &fakeCollaborator{}
	runDispatcher(t, f,
		Event{Kind: KindOrderPlaced, OrderID: "order_1"},
		Event{Kind: KindDirectPayment, OrderID: "direct_1"},
	)
	granted, confirmed, announced := f.counts()
	if granted != 0 || confirmed != 0 || announced != 2 {
		t.Fatalf("counts = (%d, %d, %d), want (0, 0, 2)", granted, confirmed, announced)
	}
}

func TestCollaboratorFailuresAreSwallowed(t *testing.T) {
	f := &fakeCollaborator{grantErr: errors.New("no such member"), confirmErr: errors.New("dms disabled")}
	runDispatcher(t, f, Event{Kind: KindVerified, OrderID: "order_1", RequesterID: "u1"})

	// both collaborators were still called, in order, despite errors
	granted, confirmed, _ := f.counts()
	if granted != 1 || confirmed != 1 {
		t.Fatalf("counts = (%d, %d), want (1, 1)", granted, confirmed)
	}
}

func TestEnqueueNeverBlocks(t *testing.T) {
	q := NewQueue(1, zap.NewNop())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			q.Enqueue(Event{Kind: KindOrderPlaced})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}
