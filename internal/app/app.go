// Package app assembles the daemon: configuration, logging, the action
// registry, the event manager and the optional HTTP, history and Telegram
// surfaces.
package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"clocked/internal/action"
	"clocked/internal/api"
	"clocked/internal/config"
	"clocked/internal/event"
	"clocked/internal/eventbus"
	"clocked/internal/history"
	"clocked/internal/notify"
	"clocked/internal/oscmd"
	"clocked/internal/sound"
	"clocked/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	cfg  *config.Config

	logs *logx.Service
	log  logx.Logger
	bus  eventbus.Bus

	registry *action.Registry
	events   *event.Manager

	journal  *history.Journal
	recorder *history.Recorder
	notifier *notify.Notifier
	httpSrv  *http.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApp loads configuration and builds every component. Nothing runs
// until Start.
func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	bus := eventbus.New()

	runner := oscmd.NewRunner(log.With(logx.String("comp", "oscmd")), 0)
	executor := oscmd.NewExecutor(log.With(logx.String("comp", "oscmd")), runner)
	opener := oscmd.NewOpener(runner)
	sounds := sound.NewResolver(log.With(logx.String("comp", "sound")), cfg.Alarm.SoundPath)

	pol := action.Policy{
		Horizon:   cfg.Horizon(),
		FireSlack: cfg.FireSlack(),
	}
	actLog := log.With(logx.String("comp", "action"))

	registry := action.NewRegistry()
	registry.Register(
		action.NewShutdown(executor, pol, actLog),
		action.NewRestart(executor, pol, actLog),
		action.NewHibernate(executor, pol, actLog),
		action.NewAlarm(bus, sounds, pol, actLog),
		action.NewLockScreen(executor, pol, actLog),
		action.NewDoNotDisturb(executor, bus, pol, actLog),
		action.NewOpenURL(opener, pol, actLog),
	)

	events := event.NewManager(event.Options{
		Log:      log.With(logx.String("comp", "events")),
		Bus:      bus,
		Registry: registry,
		Location: cfg.Location(),
		Horizon:  cfg.Horizon(),
	})

	a := &App{
		cfgm:     cfgm,
		cfg:      cfg,
		logs:     logSvc,
		log:      log,
		bus:      bus,
		registry: registry,
		events:   events,
	}

	if cfg.History != nil && cfg.History.Enabled {
		busy, _ := config.ParseDurationField("history.busy_timeout", cfg.History.BusyTimeout)
		journal, err := history.Open(history.Config{
			Path:        cfg.History.Path,
			BusyTimeout: busy,
		}, log.With(logx.String("comp", "history")))
		if err != nil {
			return nil, err
		}
		a.journal = journal
		a.recorder = history.NewRecorder(journal, log.With(logx.String("comp", "history")))
	}

	if cfg.Telegram != nil && cfg.Telegram.Enabled {
		n, err := notify.New(notify.Config{
			Token:      cfg.Telegram.Token,
			ChatID:     cfg.Telegram.ChatID,
			RatePerSec: cfg.Telegram.RatePerSec,
		}, log.With(logx.String("comp", "notify")))
		if err != nil {
			return nil, err
		}
		a.notifier = n
	}

	if cfg.API.Enabled {
		handler := api.NewServer(api.Config{
			RatePerSec: cfg.API.RatePerSec,
			Burst:      cfg.API.Burst,
		}, events, registry, a.journal, log.With(logx.String("comp", "api")))
		a.httpSrv = &http.Server{
			Addr:              cfg.API.ListenAddr(),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return a, nil
}

// Events exposes the manager for embedders and tests.
func (a *App) Events() *event.Manager { return a.events }

// Start brings the observers, the config watcher and the HTTP listener up.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.recorder != nil {
		a.recorder.Start(a.bus)
	}
	if a.notifier != nil {
		a.notifier.Start(a.bus)
	}

	// Config hot reload: only the logging section applies live; schedule
	// and transport changes need a restart.
	cfgCh := a.cfgm.Subscribe(4)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				a.cfgm.Unsubscribe(cfgCh)
				return
			case cfg, ok := <-cfgCh:
				if !ok {
					return
				}
				a.logs.Apply(mapLogConfig(cfg))
				a.log.Info("config reloaded", logx.String("level", cfg.Logging.Level))
			}
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	if a.httpSrv != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.log.Info("api listening", logx.String("addr", a.httpSrv.Addr))
			if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("api server failed", logx.Err(err))
			}
		}()
	}

	a.log.Info("clocked started",
		logx.Int("actions", len(a.registry.All())),
		logx.Bool("history", a.journal != nil),
		logx.Bool("telegram", a.notifier != nil))
	return nil
}

// Stop tears everything down in dependency order: stop accepting work,
// disarm timers, then drain the observers.
func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}

	if a.httpSrv != nil {
		sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := a.httpSrv.Shutdown(sctx); err != nil {
			a.log.Warn("api shutdown", logx.Err(err))
		}
		cancel()
	}

	a.events.Stop()

	if a.notifier != nil {
		a.notifier.Stop()
	}
	if a.recorder != nil {
		a.recorder.Stop()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn("history close", logx.Err(err))
		}
	}

	a.wg.Wait()
	a.log.Info("clocked stopped")
	return a.logs.Close()
}

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}
