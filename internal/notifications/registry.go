// Package notifications keeps the registry of scheduled daily notifications
// in the shared store. The daemon reads it to decide what to deliver.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/kvstore"
	"github.com/julianstephens/vigil/internal/logger"
	"github.com/julianstephens/vigil/internal/models"
	"github.com/julianstephens/vigil/internal/services"
	"github.com/julianstephens/vigil/internal/utils"
)

type registry = map[string]models.ScheduledNotification

// Registry implements services.Notifications on top of a kvstore.Store.
type Registry struct {
	store kvstore.Store
	auth  *services.Authorizer
	now   func() time.Time
}

func NewRegistry(store kvstore.Store, auth *services.Authorizer) *Registry {
	return &Registry{store: store, auth: auth, now: time.Now}
}

var _ services.Notifications = (*Registry)(nil)

// Identifier returns a fresh notification id for kind.
func Identifier(kind models.NotificationKind) string {
	prefix := constants.AlarmNotificationPrefix
	if kind == models.NotificationWarning {
		prefix = constants.WarningNotificationPrefix
	}
	return prefix + uuid.New().String()
}

func (r *Registry) Schedule(ctx context.Context, req models.NotificationRequest) (string, error) {
	if req.Hour < 0 || req.Hour > 23 || req.Minute < 0 || req.Minute > 59 {
		return "", fmt.Errorf("invalid notification time %02d:%02d", req.Hour, req.Minute)
	}
	if err := req.Payload.Validate(); err != nil {
		return "", err
	}

	sn := models.ScheduledNotification{
		ID:          Identifier(req.Payload.Kind),
		Request:     req,
		ScheduledAt: r.now(),
	}
	err := kvstore.UpdateJSON(ctx, r.store, constants.KeyScheduledNotifications, func(reg *registry) (bool, error) {
		if *reg == nil {
			*reg = registry{}
		}
		(*reg)[sn.ID] = sn
		return false, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to schedule notification: %w", err)
	}
	logger.Debug("Scheduled notification", "id", sn.ID, "time", utils.FormatClock(req.Hour, req.Minute))
	return sn.ID, nil
}

func (r *Registry) Cancel(ctx context.Context, id string) error {
	err := kvstore.UpdateJSON(ctx, r.store, constants.KeyScheduledNotifications, func(reg *registry) (bool, error) {
		if _, ok := (*reg)[id]; !ok {
			logger.Debug("Cancel of unknown notification ignored", "id", id)
			return len(*reg) == 0, nil
		}
		delete(*reg, id)
		return len(*reg) == 0, nil
	})
	if err != nil {
		return fmt.Errorf("failed to cancel notification %s: %w", id, err)
	}
	return nil
}

func (r *Registry) AuthorizationStatus(ctx context.Context) (services.AuthStatus, error) {
	return r.auth.Status(ctx)
}

func (r *Registry) RequestAuthorization(ctx context.Context) (bool, error) {
	return r.auth.Request(ctx)
}

// Pending returns every scheduled notification ordered by its next firing
// after now.
func (r *Registry) Pending(ctx context.Context, now time.Time) ([]models.ScheduledNotification, error) {
	var reg registry
	if err := kvstore.GetJSON(ctx, r.store, constants.KeyScheduledNotifications, &reg); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]models.ScheduledNotification, 0, len(reg))
	for _, sn := range reg {
		out = append(out, sn)
	}
	sort.Slice(out, func(i, j int) bool {
		ti := utils.NextOccurrence(out[i].Request.Hour, out[i].Request.Minute, now)
		tj := utils.NextOccurrence(out[j].Request.Hour, out[j].Request.Minute, now)
		if ti.Equal(tj) {
			return out[i].ID < out[j].ID
		}
		return ti.Before(tj)
	})
	return out, nil
}

// NextFire returns the earliest upcoming firing, if anything is scheduled.
func (r *Registry) NextFire(ctx context.Context, now time.Time) (time.Time, bool, error) {
	pending, err := r.Pending(ctx, now)
	if err != nil || len(pending) == 0 {
		return time.Time{}, false, err
	}
	first := pending[0].Request
	return utils.NextOccurrence(first.Hour, first.Minute, now), true, nil
}

// Due returns the notifications whose latest occurrence is within grace of
// now and has not been delivered yet. An occurrence at or before the moment
// the notification was scheduled does not count.
func (r *Registry) Due(ctx context.Context, now time.Time, grace time.Duration) ([]models.ScheduledNotification, error) {
	pending, err := r.Pending(ctx, now)
	if err != nil {
		return nil, err
	}

	var due []models.ScheduledNotification
	for _, sn := range pending {
		occ := utils.PreviousOccurrence(sn.Request.Hour, sn.Request.Minute, now)
		if now.Sub(occ) > grace || !occ.After(sn.ScheduledAt) {
			continue
		}
		if sn.LastFired != nil && !sn.LastFired.Before(occ) {
			continue
		}
		due = append(due, sn)
	}
	return due, nil
}

// MarkFired records that id was delivered for the occurrence at. Unknown ids
// are ignored; the notification may have been cancelled meanwhile.
func (r *Registry) MarkFired(ctx context.Context, id string, at time.Time) error {
	return kvstore.UpdateJSON(ctx, r.store, constants.KeyScheduledNotifications, func(reg *registry) (bool, error) {
		sn, ok := (*reg)[id]
		if !ok {
			return len(*reg) == 0, nil
		}
		sn.LastFired = &at
		(*reg)[id] = sn
		return false, nil
	})
}
