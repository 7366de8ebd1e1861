package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"heartmon-svc/src/internal/clock"
	"heartmon-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

// DefaultTTL is the sliding validity window applied when the configured TTL
// is missing or invalid.
const DefaultTTL = 15 * time.Minute

// HeaderName is the request header carrying the device token.
const HeaderName = "Device-Token"

const tokenBytes = 32 // 256 bits of entropy, hex encoded

type entry struct {
	token     string
	expiresAt time.Time
}

// Store keeps one live device token per principal, in memory, with a sliding
// TTL. Every authenticated request goes through Validate, so all operations
// share a single mutex: the lookup-then-insert sequence in Issue and the
// match-then-slide sequence in Validate are each one critical section.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	clk     clock.Clock
}

// NewStore creates a token store with the given sliding TTL.
func NewStore(ttl time.Duration, clk clock.Clock) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		clk:     clk,
	}
}

// Issue generates a new device token for the principal. It fails with
// models.ErrAlreadyLogged while a non-expired token exists; an expired
// leftover is silently replaced.
func (s *Store) Issue(principal string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	s.sweepLocked(now)

	if _, ok := s.entries[principal]; ok {
		logrus.WithField("principal", principal).Debug("Login rejected, token still active")
		return "", models.ErrAlreadyLogged
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	s.entries[principal] = entry{
		token:     token,
		expiresAt: now.Add(s.ttl),
	}

	logrus.WithFields(logrus.Fields{
		"principal":  principal,
		"expires_at": s.entries[principal].expiresAt,
	}).Debug("Device token issued")

	return token, nil
}

// Validate reports whether the token matches the live entry for the
// principal. A successful validation slides the expiry forward by the full
// TTL. An expired entry is evicted on the failed lookup; a mismatch leaves
// the stored entry untouched.
func (s *Store) Validate(principal, token string) bool {
	if token == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()

	e, ok := s.entries[principal]
	if !ok {
		return false
	}

	if !now.Before(e.expiresAt) {
		delete(s.entries, principal)
		logrus.WithField("principal", principal).Debug("Expired token evicted")
		return false
	}

	if e.token != token {
		return false
	}

	e.expiresAt = now.Add(s.ttl)
	s.entries[principal] = e
	return true
}

// Revoke removes the principal's token unconditionally.
func (s *Store) Revoke(principal string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, principal)
}

// Sweep removes every entry that expired before now. It is called
// opportunistically from Issue and can be called by a janitor to bound
// memory growth from abandoned logins.
func (s *Store) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) sweepLocked(now time.Time) {
	for principal, e := range s.entries {
		if e.expiresAt.Before(now) {
			delete(s.entries, principal)
		}
	}
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate device token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
