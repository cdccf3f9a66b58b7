package backupcode

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is a stored backup code: only the salted hash survives generation,
// the plaintext is never persisted.
type Entry struct {
	ID         string
	Salt       []byte
	Hash       []byte
	Consumed   bool
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Store persists backup code sets keyed by user.
//
// MarkConsumed must be an atomic compare-and-swap on the consumed flag:
// exactly one of two concurrent calls for the same entry may return true.
type Store interface {
	// Replace atomically swaps the user's code set for a new one.
	Replace(ctx context.Context, userID string, entries []Entry) error

	// List returns all entries of the user's current set, consumed included.
	List(ctx context.Context, userID string) ([]Entry, error)

	// MarkConsumed flips the consumed flag of an unconsumed entry.
	// Returns false if the entry was already consumed.
	MarkConsumed(ctx context.Context, userID, entryID string, at time.Time) (bool, error)
}

// Manager generates backup code sets and consumes submitted codes.
// It is stateless with respect to attempt counting; callers own lockout
// and retry policy.
type Manager struct {
	store Store
	now   func() time.Time
}

// NewManager creates a backup code manager backed by the given store.
func NewManager(store Store) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	return &Manager{store: store, now: time.Now}, nil
}

// Enroll generates a fresh set of codes for the user, replacing any previous
// set, and returns the plaintext codes exactly once. Sets are never silently
// regenerated: exhaustion requires the caller to invoke Enroll again from an
// authenticated re-enrollment flow.
func (m *Manager) Enroll(ctx context.Context, userID string, count int) ([]string, error) {
	codes, err := Generate(count)
	if err != nil {
		return nil, err
	}

	now := m.now()
	entries := make([]Entry, len(codes))
	for i, code := range codes {
		salt, err := NewSalt()
		if err != nil {
			return nil, err
		}
		entries[i] = Entry{
			ID:        uuid.NewString(),
			Salt:      salt,
			Hash:      HashCode(code, salt),
			CreatedAt: now,
		}
	}

	if err := m.store.Replace(ctx, userID, entries); err != nil {
		return nil, err
	}
	return codes, nil
}

// Consume validates a submitted code against the user's set and atomically
// marks the matching entry consumed. The returned entry id identifies which
// code was spent, so callers can recognize an idempotent retry.
//
// The submission is compared against every entry without early exit, so
// response time does not reveal which entry (if any) matched. A code that
// matches an already-consumed entry returns that entry's id together with
// ErrCodeAlreadyConsumed; a concurrent double submission of one code yields
// exactly one success.
func (m *Manager) Consume(ctx context.Context, userID, code string) (string, error) {
	entries, err := m.store.List(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", ErrNotEnrolled
	}

	var matched *Entry
	var unconsumed int
	for i := range entries {
		e := &entries[i]
		if !e.Consumed {
			unconsumed++
		}
		if VerifyCode(code, e.Salt, e.Hash) && matched == nil {
			matched = e
		}
	}

	if unconsumed == 0 {
		// Exhausted sets still report a consumed match distinctly so retried
		// requests can be recognized upstream.
		if matched != nil {
			return matched.ID, ErrCodeAlreadyConsumed
		}
		return "", ErrNoCodesRemaining
	}

	if matched == nil {
		return "", ErrCodeMismatch
	}
	if matched.Consumed {
		return matched.ID, ErrCodeAlreadyConsumed
	}

	ok, err := m.store.MarkConsumed(ctx, userID, matched.ID, m.now())
	if err != nil {
		return "", err
	}
	if !ok {
		// Lost the race against a concurrent submission of the same code.
		return matched.ID, ErrCodeAlreadyConsumed
	}
	return matched.ID, nil
}

// Remaining reports how many codes are still unconsumed.
func (m *Manager) Remaining(ctx context.Context, userID string) (int, error) {
	entries, err := m.store.List(ctx, userID)
	if err != nil {
		return 0, err
	}

	var n int
	for _, e := range entries {
		if !e.Consumed {
			n++
		}
	}
	return n, nil
}

// Enrolled reports whether the user has a backup code set, exhausted or not.
func (m *Manager) Enrolled(ctx context.Context, userID string) (bool, error) {
	entries, err := m.store.List(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}
