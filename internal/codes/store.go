// Package codes persists redeemable premium codes as a single JSON
// snapshot and enforces at-most-once redemption.
package codes

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/number27/premiumbot/internal/catalog"
	"github.com/number27/premiumbot/internal/storage"
)

// ErrInvalidCode covers both unknown tokens and tokens already
// redeemed; callers must not be able to tell the two apart.
var ErrInvalidCode = errors.New("invalid or already redeemed code")

type snapshot struct {
	Codes []*Code `json:"codes"`
}

// Store owns the code collection. Every mutation happens under the
// store mutex and rewrites the whole snapshot, so a concurrent second
// redeem of the same token always observes the first.
type Store struct {
	mu      sync.Mutex
	path    string
	snap    snapshot
	nowFunc func() time.Time
}

// Open loads (or initializes) the code snapshot at path.
func Open(path string) (*Store, error) {
	s := &Store{path: path, nowFunc: time.Now}
	if _, err := storage.Load(path, &s.snap); err != nil {
		return nil, err
	}
	if s.snap.Codes == nil {
		s.snap.Codes = []*Code{}
	}
	return s, nil
}

// Issue creates count new codes for the plan, clamped to MaxPerCall.
func (s *Store) Issue(planID string, d catalog.Duration, count int, issuer string) ([]Code, error) {
	if count < 1 {
		count = 1
	}
	if count > MaxPerCall {
		count = MaxPerCall
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc().UTC()
	issued := make([]Code, 0, count)
	for i := 0; i < count; i++ {
		token, err := newToken()
		if err != nil {
			return nil, err
		}
		c := &Code{
			Code:      token,
			PlanID:    planID,
			Duration:  d,
			CreatedAt: now,
			CreatedBy: issuer,
		}
		s.snap.Codes = append(s.snap.Codes, c)
		issued = append(issued, *c)
	}
	if err := storage.Save(s.path, &s.snap); err != nil {
		// roll the in-memory append back so memory matches disk
		s.snap.Codes = s.snap.Codes[:len(s.snap.Codes)-count]
		return nil, err
	}
	return issued, nil
}

// Redeem marks the code redeemed by redeemer. The not-yet-redeemed
// check and the flip happen under one lock: a second redeem of the
// same token gets ErrInvalidCode no matter how the calls interleave.
func (s *Store) Redeem(token, redeemer string) (Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.snap.Codes {
		if c.Code != token {
			continue
		}
		if c.Redeemed {
			return Code{}, ErrInvalidCode
		}
		now := s.nowFunc().UTC()
		c.Redeemed = true
		c.RedeemedBy = redeemer
		c.RedeemedAt = &now
		if err := storage.Save(s.path, &s.snap); err != nil {
			c.Redeemed = false
			c.RedeemedBy = ""
			c.RedeemedAt = nil
			return Code{}, err
		}
		return *c, nil
	}
	return Code{}, ErrInvalidCode
}

// Available returns all unredeemed codes.
func (s *Store) Available() []Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Code{}
	for _, c := range s.snap.Codes {
		if !c.Redeemed {
			out = append(out, *c)
		}
	}
	return out
}

// All returns every code, redeemed or not.
func (s *Store) All() []Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Code, 0, len(s.snap.Codes))
	for _, c := range s.snap.Codes {
		out = append(out, *c)
	}
	return out
}

func newToken() (string, error) {
	b := make([]byte, TokenLen)
	max := big.NewInt(int64(len(Alphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code token: %w", err)
		}
		b[i] = Alphabet[n.Int64()]
	}
	return string(b), nil
}
