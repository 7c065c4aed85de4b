package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/models"
)

// checkInNamespace seeds the deterministic ids of reconciled check-ins.
var checkInNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/julianstephens/vigil/pending-check-in"))

// ReconcileResult counts the queued check-ins a reconcile handled.
type ReconcileResult struct {
	Applied int
	Failed  int
}

type sessionEnder interface {
	EndForSession(ctx context.Context, sessionID string) error
}

type pruner interface {
	Prune(ctx context.Context, now time.Time, grace time.Duration, keep map[string]bool) ([]string, error)
}

// Reconcile converts queued check-ins into stored check-ins. Each entry gets
// an id derived from its content, so applying the same entry twice stores
// it once. Only entries that were saved are removed from the queue.
func (o *Orchestrator) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult
	entries := o.queue.Entries(ctx)
	if len(entries) == 0 {
		return res, nil
	}

	var done []models.PendingCheckIn
	var errs []error
	for _, e := range entries {
		c := o.checkInFor(e.PrayerID)
		c.ID = ReconciledID(e)
		c.Timestamp = e.Timestamp
		if e.Title != "" {
			c.Title = &e.Title
		}
		if err := o.store.AddCheckIn(c); err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("pending check-in %s: %w", c.ID, err))
			continue
		}
		res.Applied++
		done = append(done, e)
		o.endRemote(ctx, e.SessionID)
	}

	if err := o.queue.Acknowledge(ctx, done); err != nil {
		errs = append(errs, err)
	}
	o.log.Info("Reconciled pending check-ins", "applied", res.Applied, "failed", res.Failed)
	return res, errors.Join(errs...)
}

// ReconciledID is the deterministic check-in id of a queued entry.
func ReconciledID(e models.PendingCheckIn) string {
	name := e.PrayerID + "|" + e.Timestamp.UTC().Format(time.RFC3339Nano) + "|" + e.SessionID
	return uuid.NewSHA1(checkInNamespace, []byte(name)).String()
}

// endRemote ends the session a queued check-in came from. id may name the
// session or its surface.
func (o *Orchestrator) endRemote(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if sid, r := o.resolve(id); r != nil {
		if err := o.endSession(ctx, sid); err != nil {
			o.log.Warn("Failed to end checked-in session", "session_id", sid, "error", err)
		}
		return
	}
	if err := o.surface.End(ctx, id); err != nil {
		o.log.Warn("Failed to end surface", "activity_id", id, "error", err)
	}
	if se, ok := o.surface.(sessionEnder); ok {
		if err := se.EndForSession(ctx, id); err != nil {
			o.log.Warn("Failed to end surfaces for session", "session_id", id, "error", err)
		}
	}
}

// Resume brings the process up to date after a wake: queued check-ins are
// applied, a pending start is honored, sessions of alarms that were
// disabled elsewhere are ended, every session is re-ticked and orphaned
// surfaces are removed.
func (o *Orchestrator) Resume(ctx context.Context) error {
	var errs []error
	if _, err := o.Reconcile(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := o.ConsumePendingStart(ctx, constants.PendingStartMaxAge); err != nil {
		errs = append(errs, err)
	}

	o.mu.Lock()
	list := make(map[string]*running, len(o.sessions))
	for id, r := range o.sessions {
		list[id] = r
	}
	o.mu.Unlock()

	keep := make(map[string]bool, len(list))
	for id, r := range list {
		if alarmID := r.driver.AlarmID(); alarmID != "" {
			alarm, err := o.store.GetAlarm(alarmID)
			if isNotFound(err) || (err == nil && !alarm.Enabled) {
				o.log.Info("Alarm gone or disabled, ending session", "session_id", id, "alarm_id", alarmID)
				if err := o.endSession(ctx, id); err != nil {
					errs = append(errs, err)
				}
				continue
			}
		}
		r.driver.Tick()
		if s := o.surfaceOf(id); s != "" {
			keep[s] = true
		}
	}

	if p, ok := o.surface.(pruner); ok {
		grace := o.opts.DismissAfter
		if grace <= 0 {
			grace = constants.SessionAutoDismiss
		}
		removed, err := p.Prune(ctx, o.opts.Now(), grace, keep)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to prune surfaces: %w", err))
		} else if len(removed) > 0 {
			o.log.Debug("Pruned orphaned surfaces", "ids", removed)
		}
	}
	return errors.Join(errs...)
}
