package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/vigil/internal/backup"
	"github.com/julianstephens/vigil/internal/calendar"
	"github.com/julianstephens/vigil/internal/config"
	"github.com/julianstephens/vigil/internal/constants"
	"github.com/julianstephens/vigil/internal/keyring"
	"github.com/julianstephens/vigil/internal/kvstore"
	"github.com/julianstephens/vigil/internal/logger"
	"github.com/julianstephens/vigil/internal/models"
	"github.com/julianstephens/vigil/internal/notifications"
	"github.com/julianstephens/vigil/internal/orchestrator"
	"github.com/julianstephens/vigil/internal/prompt"
	"github.com/julianstephens/vigil/internal/queue"
	"github.com/julianstephens/vigil/internal/remote"
	"github.com/julianstephens/vigil/internal/services"
	"github.com/julianstephens/vigil/internal/storage"
	"github.com/julianstephens/vigil/internal/surface"
	"github.com/julianstephens/vigil/internal/utils"
)

type Context struct {
	Config *config.Config
	Store  storage.Provider

	kv       kvstore.Store
	services *Services
}

func NewContext(cfg *config.Config, store storage.Provider) *Context {
	return &Context{Config: cfg, Store: store}
}

// Services are the collaborators an Orchestrator is built from, all backed
// by the shared store.
type Services struct {
	KV               kvstore.Store
	NotificationAuth *services.Authorizer
	CalendarAuth     *services.Authorizer
	Notifications    *notifications.Registry
	Calendar         *calendar.Store
	Surface          *surface.Store
	CheckIns         *queue.CheckInQueue
	Start            *queue.StartSignal
	Orchestrator     *orchestrator.Orchestrator
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*storage.SQLiteStore); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// Settings returns the stored user settings, or the defaults when they
// cannot be read.
func (c *Context) Settings() models.Settings {
	s, err := c.Store.GetSettings()
	if err != nil {
		logger.Warn("Using default settings", "error", err)
		return models.DefaultSettings()
	}
	return s
}

// Now is the current time in the user's timezone.
func (c *Context) Now() time.Time {
	now, err := utils.NowInTimezone(c.Settings().Timezone)
	if err != nil {
		return time.Now()
	}
	return now
}

// KV opens the shared store selected by the config on first use.
func (c *Context) KV(ctx context.Context) (kvstore.Store, error) {
	if c.kv != nil {
		return c.kv, nil
	}
	var (
		kv  kvstore.Store
		err error
	)
	switch c.Config.KV.Backend {
	case config.KVBackendRedis:
		kv, err = kvstore.NewRedisStore(ctx, kvstore.RedisOptions{
			Addr:     c.Config.KV.Redis.Addr,
			Password: c.Config.KV.Redis.Password,
			DB:       c.Config.KV.Redis.DB,
			Prefix:   c.Config.KV.Redis.Prefix,
		})
	default:
		kv, err = kvstore.NewFileStore(c.Config.KV.Dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open shared store: %w", err)
	}
	c.kv = kv
	return kv, nil
}

// Prompter returns a terminal prompter when stdin is interactive.
func Prompter() services.Prompter {
	if prompt.Interactive() {
		return prompt.NewConfirmer()
	}
	return nil
}

// Services wires the orchestrator and its collaborators. prompter may be
// nil, in which case permissions that were never decided stay undecided.
func (c *Context) Services(ctx context.Context, prompter services.Prompter) (*Services, error) {
	if c.services != nil {
		return c.services, nil
	}
	kv, err := c.KV(ctx)
	if err != nil {
		return nil, err
	}

	s := &Services{
		KV: kv,
		NotificationAuth: services.NewAuthorizer(kv, constants.KeyNotificationAuth, prompter,
			"Allow vigil to send notifications?",
			"Prayer reminders are shown through the vigil tray app."),
		CalendarAuth: services.NewAuthorizer(kv, constants.KeyCalendarAuth, prompter,
			"Allow vigil to add prayer times to your calendar?",
			"Events are written to "+c.Config.CalendarDir+"."),
		Surface:  surface.New(kv, constants.MaxConcurrentSessions),
		CheckIns: queue.NewCheckInQueue(kv),
		Start:    queue.NewStartSignal(kv),
	}
	s.Notifications = notifications.NewRegistry(kv, s.NotificationAuth)
	s.Calendar = calendar.New(c.Config.CalendarDir, s.CalendarAuth)
	s.Surface.SetEnabled(c.Settings().LiveActivitiesEnabled)
	s.Orchestrator = orchestrator.New(c.Store, s.Notifications, s.Calendar, s.Surface, s.CheckIns, s.Start, orchestrator.Options{
		TickInterval: constants.SessionTickInterval,
		DismissAfter: constants.SessionAutoDismiss,
	})

	c.services = s
	return s, nil
}

// Reconcile saves check-ins queued by session surfaces so reads include
// them. Entries that fail stay queued for the next run.
func (c *Context) Reconcile() {
	bg := context.Background()
	s, err := c.Services(bg, nil)
	if err != nil {
		logger.Warn("Failed to reconcile queued check-ins", "error", err)
		return
	}
	res, err := s.Orchestrator.Reconcile(bg)
	if err != nil {
		logger.Warn("Failed to reconcile queued check-ins", "error", err)
		return
	}
	if res.Applied > 0 {
		logger.Info("Reconciled queued check-ins", "applied", res.Applied)
	}
}

// Actions returns remote actions over the shared store.
func (c *Context) Actions(ctx context.Context, poke func()) (*remote.Actions, error) {
	s, err := c.Services(ctx, nil)
	if err != nil {
		return nil, err
	}
	return remote.NewActions(s.CheckIns, s.Start, s.Surface, poke), nil
}

// RemoteSecret is the configured secret, falling back to the OS keyring.
func (c *Context) RemoteSecret() string {
	if c.Config.Daemon.Secret != "" {
		return c.Config.Daemon.Secret
	}
	secret, err := keyring.GetRemoteSecret()
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		logger.Debug("Remote secret unavailable", "error", err)
	}
	return secret
}

// Close releases the orchestrator, the shared store and the main store.
func (c *Context) Close() error {
	var errs []error
	if c.services != nil {
		errs = append(errs, c.services.Orchestrator.Close())
	}
	if c.kv != nil {
		errs = append(errs, c.kv.Close())
	}
	errs = append(errs, c.Store.Close())
	return errors.Join(errs...)
}

// ResolvePrayer finds a prayer by ID, or by a case-insensitive unique title.
func (c *Context) ResolvePrayer(ref string) (models.Prayer, error) {
	if p, err := c.Store.GetPrayer(ref); err == nil {
		return p, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.Prayer{}, err
	}

	prayers, err := c.Store.GetAllPrayers()
	if err != nil {
		return models.Prayer{}, fmt.Errorf("failed to get prayers: %w", err)
	}
	var matches []models.Prayer
	for _, p := range prayers {
		if strings.EqualFold(p.Title, ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return models.Prayer{}, fmt.Errorf("prayer not found: %s", ref)
	case 1:
		return matches[0], nil
	}
	return models.Prayer{}, fmt.Errorf("%d prayers are titled %q, use the ID instead", len(matches), ref)
}

// Truncate shortens s to n runes for table output.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:max(n, 0)])
	}
	return string(r[:n-3]) + "..."
}
