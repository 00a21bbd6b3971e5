// Package app wires the task store, terminal session and notification
// center into one dashboard instance.
package app

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ngenohkevin/devhub-agent/config"
	"github.com/ngenohkevin/devhub-agent/internal/cache"
	"github.com/ngenohkevin/devhub-agent/internal/clock"
	"github.com/ngenohkevin/devhub-agent/internal/logger"
	"github.com/ngenohkevin/devhub-agent/internal/notify"
	"github.com/ngenohkevin/devhub-agent/internal/tasks"
	"github.com/ngenohkevin/devhub-agent/internal/terminal"
)

// App owns every long-lived component of the dashboard
type App struct {
	Tasks         *tasks.Store
	Views         *cache.ViewCache
	Terminal      *terminal.Session
	Notifications *notify.Center

	cfg      *config.Config
	cfgMu    sync.Mutex
	log      *logger.Logger
	notifyOn atomic.Bool
}

type options struct {
	runner terminal.Runner
	clock  clock.Clock
	log    *logger.Logger
}

// Option customizes New
type Option func(*options)

// WithRunner replaces the shell runner
func WithRunner(r terminal.Runner) Option {
	return func(o *options) { o.runner = r }
}

// WithClock replaces the wall clock in every component
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// New builds the dashboard from cfg and seeds the welcome entries
func New(cfg *config.Config, opts ...Option) (*App, error) {
	o := options{clock: clock.Real{}, log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runner == nil {
		o.runner = terminal.NewShellRunner(cfg.CommandShell, cfg.CommandWorkdir)
	}

	a := &App{cfg: cfg, log: o.log}

	a.Notifications = notify.NewCenter(o.clock, nil)
	a.Tasks = tasks.NewStore(
		tasks.WithClock(o.clock),
		tasks.WithLimit(cfg.MaxTasks),
		tasks.WithSink(tasks.SinkFunc(a.publishTask)),
	)
	a.Views = cache.NewViewCache(a.Tasks, cfg.ViewCacheTTL, o.clock)
	a.Terminal = terminal.NewSession(o.runner,
		terminal.WithClock(o.clock),
		terminal.WithLogger(o.log.Named("terminal")),
		terminal.WithTimeout(cfg.CommandTimeout),
		terminal.WithMaxOutput(cfg.CommandMaxOutput),
		terminal.WithListener(a.publishCommand),
	)

	if cfg.SeedWelcomeTask {
		if _, err := a.Tasks.Add(WelcomeTask()); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to seed welcome task: %w", err)
		}
	}

	a.notifyOn.Store(cfg.ShowNotifications)
	if cfg.ShowNotifications {
		a.Notifications.Push(notify.TypeSuccess, "Welcome!", "DevHub is ready to use")
	}

	return a, nil
}

// WelcomeTask is the task a fresh dashboard starts with
func WelcomeTask() tasks.Input {
	return tasks.Input{
		Title:       "Welcome to DevHub CLI",
		Description: "Explore all the features of this developer dashboard",
		Status:      tasks.StatusCompleted,
		Priority:    tasks.PriorityHigh,
		Tags:        []string{"welcome", "tutorial"},
	}
}

// Config returns the live configuration
func (a *App) Config() *config.Config {
	return a.cfg
}

// Settings returns the current runtime settings
func (a *App) Settings() config.Settings {
	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()
	return a.cfg.Settings()
}

// ApplySettings persists s and pushes it into the running components
func (a *App) ApplySettings(s config.Settings) error {
	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()

	if err := a.cfg.ApplySettings(s); err != nil {
		return err
	}

	a.Tasks.SetLimit(a.cfg.MaxTasks)
	a.Terminal.SetTimeout(a.cfg.CommandTimeout)
	a.notifyOn.Store(a.cfg.ShowNotifications)

	a.log.Infow("settings updated",
		"max_tasks", a.cfg.MaxTasks,
		"command_timeout", a.cfg.CommandTimeout,
		"show_notifications", a.cfg.ShowNotifications,
	)
	return nil
}

// Credentials is the authentication material in effect after a key change
type Credentials struct {
	APIKey    string
	JWTSecret string
}

// SaveAPIKey persists key and returns the credentials the server should
// enforce from now on
func (a *App) SaveAPIKey(key string) (Credentials, error) {
	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()

	if err := a.cfg.SaveAPIKey(key); err != nil {
		return Credentials{}, err
	}
	a.log.Infow("api key rotated", "setup_mode", a.cfg.SetupMode)
	return Credentials{APIKey: a.cfg.APIKey, JWTSecret: a.cfg.JWTSecret}, nil
}

// AuthStatus reports whether an API key is configured and whether the agent
// is still in setup mode
func (a *App) AuthStatus() (configured, setupMode bool) {
	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()
	return a.cfg.APIKey != "", a.cfg.SetupMode
}

// Close cancels any running command and releases background resources
func (a *App) Close() {
	a.Terminal.Close()
	a.Views.Close()
}

func (a *App) publishTask(e tasks.Event) {
	a.log.Debugw("task event", "type", e.Type, "id", e.Task.ID)
	if a.notifyOn.Load() {
		a.Notifications.Publish(e)
	}
}

func (a *App) publishCommand(rec terminal.Record) {
	a.Notifications.Broadcast(notify.Event{Kind: notify.KindCommand, Data: rec})
}
