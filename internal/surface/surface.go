// Package surface publishes running sessions to the shared store so that
// processes other than the daemon can render them and act on them.
package surface

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/kvstore"
	"github.com/julianstephens/vigil/internal/models"
	"github.com/julianstephens/vigil/internal/services"
)

type activities = map[string]models.Activity

// Store implements services.Surface. Activities live under a single key so
// List always sees a consistent snapshot.
type Store struct {
	store   kvstore.Store
	limit   int
	enabled atomic.Bool
	now     func() time.Time
}

func New(store kvstore.Store, limit int) *Store {
	if limit <= 0 {
		limit = constants.MaxConcurrentSessions
	}
	s := &Store{store: store, limit: limit, now: time.Now}
	s.enabled.Store(true)
	return s
}

var _ services.Surface = (*Store)(nil)

// SetEnabled turns new surfaces on or off. Running surfaces are unaffected.
func (s *Store) SetEnabled(enabled bool) {
	s.enabled.Store(enabled)
}

func (s *Store) Start(ctx context.Context, attrs models.ActivityAttributes, state models.ActivityState) (string, error) {
	if !s.enabled.Load() {
		return "", services.ErrUnavailable
	}

	a := models.Activity{
		ID:         uuid.New().String(),
		Attributes: attrs,
		State:      state,
		StartedAt:  s.now(),
	}
	err := kvstore.UpdateJSON(ctx, s.store, constants.KeyActivities, func(m *activities) (bool, error) {
		if *m == nil {
			*m = activities{}
		}
		if len(*m) >= s.limit {
			return false, services.ErrLimitReached
		}
		(*m)[a.ID] = a
		return false, nil
	})
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

func (s *Store) Update(ctx context.Context, id string, state models.ActivityState) error {
	return kvstore.UpdateJSON(ctx, s.store, constants.KeyActivities, func(m *activities) (bool, error) {
		a, ok := (*m)[id]
		if !ok {
			return false, fmt.Errorf("%w: %s", services.ErrActivityNotFound, id)
		}
		a.State = state
		(*m)[id] = a
		return false, nil
	})
}

func (s *Store) End(ctx context.Context, id string) error {
	return kvstore.UpdateJSON(ctx, s.store, constants.KeyActivities, func(m *activities) (bool, error) {
		delete(*m, id)
		return len(*m) == 0, nil
	})
}

// EndForSession ends every activity attached to sessionID.
func (s *Store) EndForSession(ctx context.Context, sessionID string) error {
	return kvstore.UpdateJSON(ctx, s.store, constants.KeyActivities, func(m *activities) (bool, error) {
		for id, a := range *m {
			if a.Attributes.SessionID == sessionID {
				delete(*m, id)
			}
		}
		return len(*m) == 0, nil
	})
}

func (s *Store) Get(ctx context.Context, id string) (models.Activity, error) {
	all, err := s.read(ctx)
	if err != nil {
		return models.Activity{}, err
	}
	a, ok := all[id]
	if !ok {
		return models.Activity{}, fmt.Errorf("%w: %s", services.ErrActivityNotFound, id)
	}
	return a, nil
}

// List returns the running activities, oldest first.
func (s *Store) List(ctx context.Context) ([]models.Activity, error) {
	all, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Activity, 0, len(all))
	for _, a := range all {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

// Prune ends activities whose stale instant passed more than grace ago, and
// any not in keep when keep is non-nil. It returns the ids it removed.
func (s *Store) Prune(ctx context.Context, now time.Time, grace time.Duration, keep map[string]bool) ([]string, error) {
	var removed []string
	err := kvstore.UpdateJSON(ctx, s.store, constants.KeyActivities, func(m *activities) (bool, error) {
		removed = removed[:0]
		for id, a := range *m {
			stale := a.State.StaleAt != nil && now.Sub(*a.State.StaleAt) > grace
			orphan := keep != nil && !keep[id]
			if stale || orphan {
				delete(*m, id)
				removed = append(removed, id)
			}
		}
		return len(*m) == 0, nil
	})
	sort.Strings(removed)
	return removed, err
}

func (s *Store) read(ctx context.Context) (activities, error) {
	var m activities
	if err := kvstore.GetJSON(ctx, s.store, constants.KeyActivities, &m); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return activities{}, nil
		}
		return nil, err
	}
	return m, nil
}
