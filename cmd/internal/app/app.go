// Package app wires the homeworksync runtime: config, logging, portal
// session handling, the sync pipeline, HTTP routes and the live feed.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"homeworksync/cmd/internal/api"
	"homeworksync/cmd/internal/blob"
	"homeworksync/cmd/internal/feed"
	"homeworksync/cmd/internal/github"
	"homeworksync/cmd/internal/homework"
	"homeworksync/cmd/internal/metrics"
	"homeworksync/cmd/internal/portal/executor"
	"homeworksync/cmd/internal/portal/session"
	"homeworksync/cmd/internal/telemetry"
)

// App owns every long-lived component of one process.
type App struct {
	cfg    Config
	apiCfg api.Config
	log    Logger

	pool *pgxpool.Pool

	metrics  *metrics.Recorder
	hub      *feed.Hub
	gateway  *feed.Gateway
	sessions *session.Store
	syncer   *homework.Syncer
	records  homework.RecordStore
	blobs    blob.Store
	api      *api.Handler

	shutdownTracing func(context.Context) error
}

// New constructs a fully wired App. Close must be called to release the
// database pool and flush traces.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close(context.Background())
		}
	}()

	shutdown, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	a.shutdownTracing = shutdown

	a.apiCfg, err = api.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	feedCfg, err := feed.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	execCfg, err := executor.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	a.metrics = metrics.NewRecorder()
	a.hub = feed.NewHub(log)
	a.gateway = feed.NewGateway(log, a.hub, feedCfg)
	a.metrics.ObserveFeed(a.hub)
	publisher := feed.NewPublisher(a.hub, log)

	sessionObs := session.Observers(a.metrics, publisher)
	validator := session.NewHTTPValidator(sessCfg, nil, log)
	acquirer := session.NewDefaultAcquirer(sessCfg, nil, validator, log, session.WithAcquirerObserver(sessionObs))
	a.sessions = session.NewStore(acquirer, log, session.WithStoreObserver(sessionObs))

	exec := executor.New(execCfg, sessCfg.BaseURL, nil, a.sessions, log,
		executor.WithObserver(executor.Observers(a.metrics.Executions(), publisher.Executions())),
	)

	if a.blobs, err = newBlobStore(cfg, log); err != nil {
		return nil, err
	}
	if a.records, err = a.newRecordStore(ctx); err != nil {
		return nil, err
	}

	a.syncer = homework.NewSyncer(executor.NewClient(exec), a.records, log,
		homework.WithSyncObserver(a.metrics),
		homework.WithSyncObserver(publisher),
	)

	a.api, err = api.NewHandler(log, a.apiCfg, a.syncer, a.records,
		api.WithReportStore(a.blobs),
		api.WithSessionView(a.sessions),
	)
	if err != nil {
		return nil, err
	}

	ok = true
	return a, nil
}

func newBlobStore(cfg Config, log Logger) (blob.Store, error) {
	switch cfg.Blob {
	case BlobGitHub:
		gcfg, err := github.LoadConfigFromEnv()
		if err != nil {
			return nil, err
		}
		log.Info("blob.github", "repo", gcfg.Repo, "branch", gcfg.Branch)
		return github.NewContentsStore(gcfg, nil, log)
	default:
		log.Info("blob.file", "dir", cfg.DataDir)
		return blob.NewFileStore(cfg.DataDir, log)
	}
}

func (a *App) newRecordStore(ctx context.Context) (homework.RecordStore, error) {
	switch a.cfg.Records {
	case RecordsMemory:
		a.log.Info("records.memory")
		return homework.NewMemoryStore(), nil
	case RecordsPostgres:
		pool, err := NewDBPool(ctx, a.cfg)
		if err != nil {
			return nil, err
		}
		a.pool = pool

		st, err := homework.NewPostgresStore(pool, homework.WithSchema(a.cfg.DBSchema))
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.log.Info("records.postgres", "schema", a.cfg.DBSchema)
		return st, nil
	default:
		a.log.Info("records.csv", "path", a.cfg.CSVPath)
		return homework.NewCSVStore(a.blobs, a.cfg.CSVPath), nil
	}
}

// Sync runs one sync pass.
func (a *App) Sync(ctx context.Context) (homework.Result, error) {
	return a.syncer.Run(ctx)
}

// Serve starts the HTTP server and, when configured, the sync scheduler.
// It blocks until ctx is cancelled or the server fails.
func (a *App) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.pool, a.metrics, a.gateway, a.api)

	var h http.Handler = mux
	h = WithCORS(h, a.cfg, a.log)
	h = WithSecurityHeaders(h)
	h = WithRequestLogging(h, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 2*time.Minute),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	base := runtimeBaseURL(a.cfg.HTTPAddr)
	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"url", base,
		"feed", feedURL(a.cfg.HTTPAddr),
		"records", a.cfg.Records,
		"blob", a.cfg.Blob,
		"sync_interval", a.cfg.SyncInterval,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("server.fail", "err", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("server.stop", "reason", context.Cause(gctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server.shutdown.fail", "err", err)
			return err
		}
		return nil
	})
	if a.cfg.SyncInterval > 0 {
		g.Go(func() error {
			a.schedule(gctx, a.cfg.SyncInterval)
			return nil
		})
	}

	err := g.Wait()
	a.log.Info("server.stopped")
	return err
}

// schedule runs a sync immediately and then every interval until ctx ends.
// Failures are logged and reported through the observers; they never stop the loop.
func (a *App) schedule(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		if _, err := a.syncer.Run(ctx); err != nil && ctx.Err() == nil {
			a.log.Warn("sync.scheduled.fail", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Close releases the database pool and flushes pending spans.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
		a.shutdownTracing = nil
	}
	return errors.Join(errs...)
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
