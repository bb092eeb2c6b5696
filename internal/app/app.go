package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/five82/lectern/internal/autologin"
	"github.com/five82/lectern/internal/cache"
	"github.com/five82/lectern/internal/config"
	"github.com/five82/lectern/internal/content"
	"github.com/five82/lectern/internal/courses"
	"github.com/five82/lectern/internal/metrics"
	"github.com/five82/lectern/internal/moodle"
	"github.com/five82/lectern/internal/prefs"
	"github.com/five82/lectern/internal/session"
	"github.com/five82/lectern/internal/state"
	"github.com/five82/lectern/internal/telemetry"
	"github.com/five82/lectern/internal/ui"
	"github.com/five82/lectern/internal/viewer"
)

// Options configure the lectern application.
type Options struct {
	ConfigPath string // empty uses default ~/.config/lectern/config.toml
	Verbose    bool
	// Out receives URLs handed to the browser. Leave nil under the TUI.
	Out io.Writer
}

// App holds every long-lived component. It is built once per process and
// shared by the CLI commands and the TUI.
type App struct {
	Settings config.Settings
	Prefs    prefs.Prefs
	Logger   *slog.Logger

	Session     *session.Store
	Cache       *cache.Manager
	Client      *moodle.Client
	Bridge      *autologin.Bridge
	Opener      *BrowserOpener
	Engine      *content.Engine
	Selector    *content.Selector
	Courses     *courses.Service
	Assignments *viewer.Assignments
	Quizzes     *viewer.Quizzes
	State       *state.Store

	closers []func(context.Context) error
}

// New loads configuration and wires the components.
func New(ctx context.Context, opts Options) (*App, error) {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logFile, err := openLogFile(settings.LogFile)
	if err != nil {
		return nil, err
	}
	level := settings.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	logger := newLogger(logFile, level, settings.LogFormat)
	slog.SetDefault(logger)

	a := &App{Settings: settings, Logger: logger}
	a.closers = append(a.closers, func(context.Context) error { return logFile.Close() })

	shutdownTracer, err := telemetry.Init(ctx, "lectern")
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		a.closers = append(a.closers, shutdownTracer)
	}

	a.Session, err = session.Open(settings.SessionPath)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("open session: %w", err)
	}
	if a.Prefs, err = prefs.Load(settings.PrefsPath); err != nil {
		logger.Warn("using default prefs", "error", err)
	}

	a.Cache = cache.NewManager(a.openCacheStore(ctx), cache.Options{Logger: logger})

	var limiter *rate.Limiter
	if settings.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(settings.RateLimit), max(settings.RateBurst, 1))
	}
	a.Client = moodle.NewClient(a.Session, moodle.Options{
		Limiter:   limiter,
		Logger:    logger,
		UserAgent: settings.UserAgent,
		Timeouts: moodle.Timeouts{
			Default:   settings.RequestTimeout,
			SiteInfo:  settings.SiteInfoTimeout,
			Autologin: settings.AutologinTimeout,
			File:      settings.FileTimeout,
		},
	})
	a.Bridge = autologin.New(a.Client, settings.AutologinTimeout, logger)
	a.Opener = &BrowserOpener{Out: opts.Out, Logger: logger}
	a.Engine = content.NewEngine(a.Client, a.Bridge, a.Session, content.Options{Opener: a.Opener, Logger: logger})
	a.Selector = content.NewSelector(a.Engine)
	a.Courses = courses.NewService(a.Client, a.Cache, logger)
	a.Assignments = viewer.NewAssignments(a.Client, logger)
	a.Quizzes = viewer.NewQuizzes(a.Client, a.Bridge, a.Session)
	a.State = &state.Store{}

	if settings.MetricsAddr != "" {
		a.startMetrics()
	}

	logger.Debug("lectern initialized",
		"cache_driver", settings.CacheDriver,
		"connected", a.Session.Connected(),
	)
	return a, nil
}

func (a *App) openCacheStore(ctx context.Context) cache.Store {
	switch a.Settings.CacheDriver {
	case config.CacheNone:
		return cache.NopStore{}
	case config.CacheRedis:
		store, err := cache.OpenRedis(ctx, a.Settings.RedisURL)
		if err == nil {
			return store
		}
		a.Logger.Warn("redis cache unavailable, using sqlite", "error", err)
	}
	store, err := cache.OpenSQLite(a.Settings.CachePath)
	if err != nil {
		a.Logger.Warn("persistent cache unavailable, using memory only", "path", a.Settings.CachePath, "error", err)
		return cache.NopStore{}
	}
	return store
}

func (a *App) startMetrics() {
	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              a.Settings.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Warn("metrics listener stopped", "addr", srv.Addr, "error", err)
		}
	}()
	a.closers = append(a.closers, srv.Shutdown)
	a.Logger.Info("metrics listening", "addr", srv.Addr)
}

// Login exchanges credentials for a token, tests it and saves the session.
func (a *App) Login(ctx context.Context, rawURL, username, password string, autoConnect bool) (moodle.SiteInfo, error) {
	base, err := moodle.ParseBaseURL(rawURL)
	if err != nil {
		return moodle.SiteInfo{}, err
	}
	token, err := a.Client.Login(ctx, base.String(), username, password)
	if err != nil {
		return moodle.SiteInfo{}, err
	}
	return a.connect(ctx, base.String(), token, autoConnect)
}

// LoginWithToken tests an existing web-service token and saves the session.
func (a *App) LoginWithToken(ctx context.Context, rawURL, token string, autoConnect bool) (moodle.SiteInfo, error) {
	base, err := moodle.ParseBaseURL(rawURL)
	if err != nil {
		return moodle.SiteInfo{}, err
	}
	return a.connect(ctx, base.String(), token, autoConnect)
}

func (a *App) connect(ctx context.Context, baseURL, token string, autoConnect bool) (moodle.SiteInfo, error) {
	info, err := a.Client.Probe(ctx, baseURL, token)
	if err != nil {
		return moodle.SiteInfo{}, err
	}
	// Cached data may belong to a previous account.
	if err := a.Cache.Clear(ctx); err != nil {
		a.Logger.Warn("clear cache on login failed", "error", err)
	}
	if err := a.Session.Save(session.Config{URL: baseURL, Token: token, AutoConnect: autoConnect}); err != nil {
		return moodle.SiteInfo{}, fmt.Errorf("save session: %w", err)
	}
	if err := a.Session.SetCapabilities(info.FunctionNames()); err != nil {
		a.Logger.Warn("save capabilities failed", "error", err)
	}
	a.State.Succeed(info, nil)
	a.Logger.Info("logged in", "site", info.SiteName, "user", info.Username)
	return info, nil
}

// Logout forgets the session and every cached response.
func (a *App) Logout(ctx context.Context) error {
	a.Selector.Reset()
	a.State.Reset()
	// The cache is cleared even when the session file cannot be removed.
	if err := errors.Join(a.Session.Clear(), a.Cache.Clear(ctx)); err != nil {
		return err
	}
	a.Logger.Info("logged out")
	return nil
}

// Run boots the TUI until the context is cancelled or the user quits.
func (a *App) Run(ctx context.Context) error {
	monitor := &Monitor{
		Store:          a.State,
		Site:           a.Client,
		Courses:        a.Courses,
		Session:        a.Session,
		Classification: a.Prefs.Classification,
		Logger:         a.Logger,
	}
	monitor.Start(ctx)

	return ui.Run(ctx, ui.Options{
		Courses:     a.Courses,
		Selector:    a.Selector,
		Engine:      a.Engine,
		Assignments: a.Assignments,
		Quizzes:     a.Quizzes,
		Session:     a.Session,
		State:       a.State,
		Opener:      a.Opener,
		Prefs:       a.Prefs,
		PrefsPath:   a.Settings.PrefsPath,
		LogPath:     a.Settings.LogFile,
		Logger:      a.Logger,
	})
}

// Close waits for background cache work and releases resources.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
