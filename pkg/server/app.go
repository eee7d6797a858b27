package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"SymDir/internal/service/symbolcache"
	"SymDir/internal/usecase"
	"SymDir/pkg/config"
	xhttp "SymDir/pkg/http"
	applogger "SymDir/pkg/logger"
	"SymDir/pkg/scheduler"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg   *config.Config
	log   *applogger.Logger
	http  *xhttp.Server
	sched *scheduler.Scheduler
	svc   *usecase.SymbolService
	inv   *usecase.InvalidationHandler

	wg sync.WaitGroup
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	sched *scheduler.Scheduler,
	svc *usecase.SymbolService,
	inv *usecase.InvalidationHandler,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, log: l.With("app"), http: srv, sched: sched, svc: svc, inv: inv}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done or the
// HTTP listener fails, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	bgCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Invalidation subscriber
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.inv.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error("invalidation subscriber error", applogger.Error(err))
		}
	}()

	// Initial warm runs in the background so the listener comes up immediately.
	if a.cfg.Warm.Enabled && a.cfg.Warm.OnStartup {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.sched.RunNow(WarmJob(a.svc, a.log)); err != nil {
				a.log.Warn("startup warm failed", applogger.Error(err))
			}
		}()
	}

	a.sched.Start()

	if err := a.http.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		cancel()
		a.shutdown()
		return err
	}
	a.log.Info("symbol directory started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("store", a.cfg.Store.Backend),
		applogger.String("invalidation", a.cfg.Invalidation.Transport),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case runErr = <-a.http.Err():
		a.log.Error("http server failed", applogger.Error(runErr))
	}

	cancel()
	a.shutdown()
	return runErr
}

// shutdown gracefully stops all services.
func (a *App) shutdown() {
	a.log.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.http.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	if err := a.sched.Stop(ctx); err != nil {
		a.log.Warn("scheduler stop error", applogger.Error(err))
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("background workers did not stop in time")
	}

	a.log.Info("shutdown complete")
}

// WarmJob runs a cache warm. A warm already in progress is not an error.
func WarmJob(svc *usecase.SymbolService, l *applogger.Logger) scheduler.Job {
	if l == nil {
		l = applogger.Nop()
	}
	return scheduler.JobFunc{JobName: "cache_warm", Fn: func(ctx context.Context) error {
		report, err := svc.WarmCache(ctx)
		if errors.Is(err, symbolcache.ErrWarmInProgress) {
			l.Info("cache warm skipped, already running")
			return nil
		}
		if err != nil {
			return err
		}
		l.Info("cache warmed",
			applogger.Int("underlyings", report.Underlyings),
			applogger.Int("derivatives", report.Derivatives),
			applogger.Int("equities", report.Equities),
			applogger.Strings("failed", report.Failed),
			applogger.Duration("duration_ms", report.Duration),
		)
		return nil
	}}
}

// StatsJob logs cache statistics; reading them also refreshes the size gauges.
func StatsJob(svc *usecase.SymbolService, l *applogger.Logger) scheduler.Job {
	if l == nil {
		l = applogger.Nop()
	}
	return scheduler.JobFunc{JobName: "cache_stats", Fn: func(context.Context) error {
		st := svc.Stats()
		l.Debug("cache stats",
			applogger.Int("frequent", st.FrequentSymbols.Size),
			applogger.Int("symbols", st.Symbols.Size),
			applogger.Int("searches", st.SearchResults.Size),
			applogger.Float64("hit_rate", st.HitRate),
			applogger.Bool("warming", st.Warming),
		)
		return nil
	}}
}
