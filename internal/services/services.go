// Package services declares the external collaborators the orchestrator
// drives: notification delivery, the calendar and the session surface.
// Implementations are constructed once per process and passed in explicitly.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/vigil/internal/models"
)

type AuthStatus string

const (
	AuthNotDetermined AuthStatus = "not_determined"
	AuthAuthorized    AuthStatus = "authorized"
	AuthDenied        AuthStatus = "denied"
)

func (s AuthStatus) Valid() bool {
	switch s {
	case AuthNotDetermined, AuthAuthorized, AuthDenied:
		return true
	}
	return false
}

// Notifications schedules daily repeating notifications.
type Notifications interface {
	// Schedule registers req and returns its identifier.
	Schedule(ctx context.Context, req models.NotificationRequest) (string, error)
	// Cancel removes a scheduled notification. Unknown ids are ignored.
	Cancel(ctx context.Context, id string) error
	AuthorizationStatus(ctx context.Context) (AuthStatus, error)
	// RequestAuthorization asks the user when the status is undetermined and
	// reports whether notifications may be scheduled.
	RequestAuthorization(ctx context.Context) (bool, error)
}

// CalendarEvent describes a daily recurring event with no end date.
type CalendarEvent struct {
	Title    string
	Notes    string
	Start    time.Time
	Duration time.Duration
}

type Calendar interface {
	CreateRecurringEvent(ctx context.Context, ev CalendarEvent) (string, error)
	// DeleteEvent reports whether an event was removed. A missing event is
	// not an error.
	DeleteEvent(ctx context.Context, id string) (bool, error)
	AuthorizationStatus(ctx context.Context) (AuthStatus, error)
	RequestAuthorization(ctx context.Context) (bool, error)
}

var (
	// ErrUnavailable means the surface cannot be shown at all, for example
	// because the user disabled it.
	ErrUnavailable = errors.New("session surface unavailable")
	// ErrLimitReached means too many surfaces are already running.
	ErrLimitReached     = errors.New("session surface limit reached")
	ErrActivityNotFound = errors.New("activity not found")
)

// Surface shows session progress outside the owning process.
type Surface interface {
	Start(ctx context.Context, attrs models.ActivityAttributes, state models.ActivityState) (string, error)
	Update(ctx context.Context, id string, state models.ActivityState) error
	// End removes the surface. Unknown ids are ignored.
	End(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (models.Activity, error)
	List(ctx context.Context) ([]models.Activity, error)
}
