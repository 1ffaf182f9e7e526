package proctoring

import (
	"context"
	"fmt"
	"time"
)

const (
	// DebounceWindow absorbs burst false-positives from back-to-back
	// frames of the same violation.
	DebounceWindow = 2 * time.Second

	// WarningThreshold is the accepted-warning count that forces
	// submission.
	WarningThreshold = 5
)

// WarningState is the ephemeral per-(student, attempt) counter. It does
// not survive a process restart; reconstructing it as zero favors
// under-escalation over over-escalation.
type WarningState struct {
	Count         int
	LastWarningAt time.Time
}

// WarningStore keys warning state by (student, attempt), decoupled from
// any transport mechanism.
type WarningStore interface {
	Get(ctx context.Context, key string) (WarningState, error)
	Put(ctx context.Context, key string, state WarningState, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Ledger accumulates warnings with debounce and decides when to force a
// submit. It holds no per-attempt state itself; everything lives in the
// store so several instances can share one Redis.
type Ledger struct {
	store WarningStore
	ttl   time.Duration
}

func NewLedger(store WarningStore, ttl time.Duration) *Ledger {
	return &Ledger{store: store, ttl: ttl}
}

func warningKey(studentID string, attemptID uint) string {
	return fmt.Sprintf("proctoring:warn:%s:%d", studentID, attemptID)
}

// Observation is the ledger's verdict for one analysis cycle. An
// accepted observation carries the state write it implies; nothing is
// persisted until Commit.
type Observation struct {
	Count        int
	Accepted     bool
	ForcedSubmit bool

	key  string
	next WarningState
}

// Assess computes the verdict for one frame without touching the store,
// so callers can order their own writes between Assess and Commit. A
// non-suspicious frame never changes state. A suspicious frame counts
// only when the debounce window since the last accepted warning has
// elapsed; reaching the threshold reports ForcedSubmit and resets the
// counter to zero.
func (l *Ledger) Assess(ctx context.Context, studentID string, attemptID uint, suspicious bool, now time.Time) (Observation, error) {
	key := warningKey(studentID, attemptID)

	state, err := l.store.Get(ctx, key)
	if err != nil {
		return Observation{}, fmt.Errorf("get warning state: %w", err)
	}

	if !suspicious {
		return Observation{Count: state.Count}, nil
	}

	if !state.LastWarningAt.IsZero() && now.Sub(state.LastWarningAt) < DebounceWindow {
		return Observation{Count: state.Count}, nil
	}

	state.Count++
	state.LastWarningAt = now

	if state.Count >= WarningThreshold {
		return Observation{Count: 0, Accepted: true, ForcedSubmit: true, key: key}, nil
	}
	return Observation{Count: state.Count, Accepted: true, key: key, next: state}, nil
}

// Commit persists the state change an accepted observation implies.
func (l *Ledger) Commit(ctx context.Context, obs Observation) error {
	if !obs.Accepted {
		return nil
	}
	if obs.ForcedSubmit {
		if err := l.store.Delete(ctx, obs.key); err != nil {
			return fmt.Errorf("reset warning state: %w", err)
		}
		return nil
	}
	if err := l.store.Put(ctx, obs.key, obs.next, l.ttl); err != nil {
		return fmt.Errorf("put warning state: %w", err)
	}
	return nil
}

// Observe assesses and commits in one step.
func (l *Ledger) Observe(ctx context.Context, studentID string, attemptID uint, suspicious bool, now time.Time) (Observation, error) {
	obs, err := l.Assess(ctx, studentID, attemptID, suspicious, now)
	if err != nil {
		return Observation{}, err
	}
	if err := l.Commit(ctx, obs); err != nil {
		return Observation{}, err
	}
	return obs, nil
}

// Reset clears the counter for an attempt, used when the attempt reaches
// a terminal state by other means.
func (l *Ledger) Reset(ctx context.Context, studentID string, attemptID uint) error {
	return l.store.Delete(ctx, warningKey(studentID, attemptID))
}
