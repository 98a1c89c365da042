package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/spritegen/internal/build"
	"git.home.luguber.info/inful/spritegen/internal/codepoints"
	"git.home.luguber.info/inful/spritegen/internal/config"
	"git.home.luguber.info/inful/spritegen/internal/events"
	"git.home.luguber.info/inful/spritegen/internal/logfields"
	"git.home.luguber.info/inful/spritegen/internal/metrics"
	"git.home.luguber.info/inful/spritegen/internal/notify"
	"git.home.luguber.info/inful/spritegen/internal/watch"
)

// Run builds every sheet described by cfg. In watch mode it keeps running
// until interrupted; otherwise it returns the joined sheet errors.
func Run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	run, err := rt.orchestrator.Start(ctx)
	if err != nil {
		return err
	}
	if cfg.Watch {
		return nil
	}
	report(os.Stdout, run)
	return run.Err()
}

// runtime holds the process-level collaborators around the orchestrator.
type runtime struct {
	cfg          *config.Config
	bus          *events.Bus
	recorder     metrics.Recorder
	orchestrator *build.Orchestrator

	metricsServer *http.Server
	forwarder     *notify.Forwarder
	store         codepoints.Store
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	orch, err := build.NewOrchestrator(cfg)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, bus: events.NewBus(), recorder: metrics.NoopRecorder{}, orchestrator: orch}

	if cfg.Metrics.Addr != "" {
		reg := metrics.NewRegistry()
		rt.recorder = metrics.NewPrometheusRecorder(reg)
		rt.metricsServer = metrics.NewServer(cfg.Metrics.Addr, reg, func() string { return orch.Phase().String() })
		go func() {
			slog.Info("Serving metrics", logfields.Addr(cfg.Metrics.Addr))
			if err := rt.metricsServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
	}

	if cfg.Notify.NATSURL != "" {
		fw, err := notify.Connect(rt.bus, cfg.Notify)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.forwarder = fw
		go func() {
			if err := fw.Run(ctx); err != nil {
				slog.Warn("Notification forwarder stopped", logfields.Error(err))
			}
		}()
	}

	if cfg.SVG.Provider.Store != "" {
		store, err := codepoints.NewSQLiteStore(cfg.Resolve(cfg.SVG.Provider.Store))
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.store = store
		orch.WithCodepointStore(store)
	}

	orch.WithBus(rt.bus).WithRecorder(rt.recorder).WithWatchHook(rt.watch)
	return rt, nil
}

// watch is the orchestrator's watch hook: it reports the initial run and
// blocks in the coordinator until ctx is canceled.
func (rt *runtime) watch(ctx context.Context, svc build.Service, initial *build.RunResult) error {
	report(os.Stdout, initial)

	fsw, err := watch.NewFSWatcher(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = fsw.Close() }()

	coord := watch.NewCoordinator(svc, fsw, rt.bus, rt.recorder, watch.Options{OnChange: rt.cfg.WatchOptions.OnChange})
	if err := coord.Attach(ctx); err != nil {
		return err
	}

	if interval := rt.cfg.WatchOptions.RebuildInterval; interval > 0 {
		sched, err := watch.NewScheduler(svc)
		if err != nil {
			return err
		}
		if _, err := sched.SchedulePeriodicRebuild(ctx, interval); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}()
	}

	slog.Info("Watching for changes", logfields.Count(len(coord.Watched())))
	return coord.Run(ctx)
}

func (rt *runtime) close() {
	if rt.forwarder != nil {
		rt.forwarder.Close()
	}
	if rt.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.metricsServer.Shutdown(ctx); err != nil {
			slog.Warn("Metrics server shutdown failed", logfields.Error(err))
		}
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			slog.Warn("Failed to close code point store", logfields.Error(err))
		}
	}
	rt.bus.Close()
}

// report prints the outputs of every sheet that built.
func report(w io.Writer, run *build.RunResult) {
	if run == nil {
		return
	}
	for _, s := range run.Sheets {
		if !s.OK() {
			_, _ = fmt.Fprintf(w, "%s: failed\n", s.Sheet)
			continue
		}
		files := s.Files()
		if len(files) == 0 {
			_, _ = fmt.Fprintf(w, "%s: no sources\n", s.Sheet)
			continue
		}
		for _, f := range files {
			_, _ = fmt.Fprintf(w, "%s: %s\n", s.Sheet, f)
		}
	}
}
