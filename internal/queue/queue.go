// Package queue holds the cross-process signals written by surfaces that
// cannot reach the main store: pending check-ins and the pending start flag.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/kvstore"
	"github.com/julianstephens/vigil/internal/logger"
	"github.com/julianstephens/vigil/internal/models"
)

// CheckInQueue is the durable list of pending check-ins.
type CheckInQueue struct {
	store kvstore.Store
	now   func() time.Time
}

func NewCheckInQueue(store kvstore.Store) *CheckInQueue {
	return &CheckInQueue{store: store, now: time.Now}
}

// Enqueue appends a pending check-in stamped with the current time. The whole
// list is rewritten in one atomic update.
func (q *CheckInQueue) Enqueue(ctx context.Context, prayerID, sessionID string) (models.PendingCheckIn, error) {
	return q.Add(ctx, models.PendingCheckIn{PrayerID: prayerID, SessionID: sessionID})
}

// Add appends entry, stamping it with the current time when it has none.
func (q *CheckInQueue) Add(ctx context.Context, entry models.PendingCheckIn) (models.PendingCheckIn, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = q.now()
	}
	entry.Timestamp = entry.Timestamp.UTC()
	err := kvstore.UpdateJSON(ctx, q.store, constants.KeyPendingCheckIns, func(list *[]models.PendingCheckIn) (bool, error) {
		*list = append(*list, entry)
		return false, nil
	})
	if err != nil {
		return models.PendingCheckIn{}, fmt.Errorf("failed to enqueue check-in: %w", err)
	}
	logger.Debug("Enqueued pending check-in", "prayer_id", entry.PrayerID, "session_id", entry.SessionID)
	return entry, nil
}

// Entries returns the queued check-ins. A missing or unreadable queue reads
// as empty.
func (q *CheckInQueue) Entries(ctx context.Context) []models.PendingCheckIn {
	var list []models.PendingCheckIn
	if err := kvstore.GetJSON(ctx, q.store, constants.KeyPendingCheckIns, &list); err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			logger.Warn("Pending check-in queue unreadable, treating as empty", "error", err)
		}
		return nil
	}
	return list
}

// Clear removes the queue entirely.
func (q *CheckInQueue) Clear(ctx context.Context) error {
	if err := q.store.Delete(ctx, constants.KeyPendingCheckIns); err != nil {
		return fmt.Errorf("failed to clear check-in queue: %w", err)
	}
	return nil
}

// Acknowledge removes exactly the given entries. Entries enqueued after they
// were read are kept. The key is removed once the queue is empty.
func (q *CheckInQueue) Acknowledge(ctx context.Context, done []models.PendingCheckIn) error {
	if len(done) == 0 {
		return nil
	}
	err := kvstore.UpdateJSON(ctx, q.store, constants.KeyPendingCheckIns, func(list *[]models.PendingCheckIn) (bool, error) {
		remaining := make(map[models.PendingCheckIn]int, len(done))
		for _, e := range done {
			remaining[key(e)]++
		}
		kept := (*list)[:0]
		for _, e := range *list {
			if remaining[key(e)] > 0 {
				remaining[key(e)]--
				continue
			}
			kept = append(kept, e)
		}
		*list = kept
		return len(kept) == 0, nil
	})
	if err != nil {
		return fmt.Errorf("failed to acknowledge check-ins: %w", err)
	}
	return nil
}

// key normalizes the timestamp so entries that went through a JSON round
// trip compare equal.
func key(e models.PendingCheckIn) models.PendingCheckIn {
	e.Timestamp = e.Timestamp.UTC().Round(0)
	return e
}

// StartSignal is the single-slot "begin countdown" flag written by remote
// surfaces.
type StartSignal struct {
	store kvstore.Store
	now   func() time.Time
}

func NewStartSignal(store kvstore.Store) *StartSignal {
	return &StartSignal{store: store, now: time.Now}
}

// Set records a start request for activityID, replacing any earlier one.
func (s *StartSignal) Set(ctx context.Context, activityID string) error {
	sig := models.PendingStart{ActivityID: activityID, Timestamp: s.now().UTC()}
	if err := kvstore.SetJSON(ctx, s.store, constants.KeyPendingStart, sig); err != nil {
		return fmt.Errorf("failed to record start request: %w", err)
	}
	return nil
}

// Take reads and clears the pending start. ok is false when there is none.
func (s *StartSignal) Take(ctx context.Context) (sig models.PendingStart, ok bool, err error) {
	err = s.store.Update(ctx, constants.KeyPendingStart, func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, nil
		}
		if jsonErr := json.Unmarshal(current, &sig); jsonErr != nil {
			logger.Warn("Discarding unreadable start request", "error", jsonErr)
			return nil, nil
		}
		ok = true
		return nil, nil
	})
	if err != nil {
		return models.PendingStart{}, false, fmt.Errorf("failed to read start request: %w", err)
	}
	return sig, ok, nil
}
