package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/config"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/crypto"
	http_controllers "github.com/Etherea7/bible-study-scribby-sub000/internal/http"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/scheduler"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/session"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, log *zap.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}
	log.Info("shutting down server", zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work first so it does not outlive the database.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server exiting")
	return nil
}

// Run wires every component and serves HTTP until interrupted.
func Run(cfg *config.Config, log *zap.Logger, version string) error {
	log.Info("starting scribby", zap.String("version", version))

	app, err := NewApp(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()

	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		secret, err = crypto.GenerateSecret()
		if err != nil {
			return err
		}
		log.Warn("generated a session secret, set SESSION_SECRET to keep sessions across restarts")
	}

	enc, err := crypto.NewEncryptorFromSecret(secret, crypto.PurposeUserKey)
	if err != nil {
		return fmt.Errorf("failed to create session encryptor: %w", err)
	}
	sqlDB, err := app.DB.SQL()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	sessions, err := session.NewManager(sqlDB, cfg.Session, enc)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	var csrfSecret []byte
	if cfg.Session.CSRFEnabled {
		csrfSecret, err = crypto.DeriveKey(secret, crypto.PurposeCSRF)
		if err != nil {
			return fmt.Errorf("failed to derive CSRF key: %w", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Logger:            log.Named("http"),
		Database:          app.DB,
		Passages:          app.Passages,
		Studies:           app.Studies,
		Providers:         app.Providers,
		History:           app.History,
		Cache:             app.Cache,
		Preferences:       app.Preferences,
		Transfer:          app.Transfer,
		Sessions:          sessions,
		CSRFSecret:        csrfSecret,
		SecureCookies:     cfg.Session.SecureCookies,
		GenerateRateLimit: cfg.HTTP.GenerateRateLimit,
		HistoryLimit:      cfg.Global.HistoryLimit,
		Version:           version,
	}

	var taskClient *tasks.Client
	var pruneScheduler *scheduler.CachePruneScheduler
	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks), log.Named("tasks"))
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error("error closing task client", zap.Error(err))
			}
		}()

		taskClient.Register(
			tasks.NewGenerateStudyQueue(app.Studies, log.Named("tasks")),
			tasks.NewPruneCacheQueue(app.Cache, cfg.Cache.TTL, log.Named("tasks")),
		)
		taskClient.Start(bgCtx)
		routerCfg.TaskQueue = taskClient

		pruneScheduler = scheduler.NewCachePruneScheduler(taskClient, cfg.Cache.PruneSchedule, log.Named("scheduler"))
		if err := pruneScheduler.Start(bgCtx); err != nil {
			return fmt.Errorf("failed to start cache prune scheduler: %w", err)
		}
	} else {
		log.Info("task queue disabled")
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if pruneScheduler != nil {
			pruneScheduler.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		cancelBackground()
	}

	return Serve(router, cfg, log, onShutdown)
}
