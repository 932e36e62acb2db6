package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"github.com/y0lz/backend-json/internal/config"
	"github.com/y0lz/backend-json/internal/logx"
	"github.com/y0lz/backend-json/internal/notify"
	"github.com/y0lz/backend-json/internal/transport/kafka"
)

// Runner runs the HTTP server
type Runner struct {
	runFn func(*dig.Container) error
}

// NewRunner returns a new Runner
func NewRunner() *Runner {
	return &Runner{runFn: run}
}

// MustRun starts the HTTP server using the provided DI container
func (r *Runner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil {
		return
	}
	// конфиг мог не загрузиться, тогда пишем в stderr
	logger := logx.NewJSON(os.Stderr, slog.LevelInfo, "dispatch-core")
	_ = container.Invoke(func(l logx.Logger) { logger = l })
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("shutdown requested, exiting")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Info("startup aborted: startup timeout exceeded")
	default:
		logger.Error("run error", logx.Err(err))
		panic(err)
	}
}

func run(container *dig.Container) error {
	return container.Invoke(serve)
}

func serve(
	ctx context.Context,
	cfg *config.Config,
	server *http.Server,
	logger logx.Logger,
	pool *pgxpool.Pool,
	dispatcher *notify.Dispatcher,
	producer *kafka.Producer,
) error {
	defer closeResources(logger, dispatcher, producer, pool)

	prepareSchema(ctx, logger, cfg, pool)

	errCh := startServer(server, logger)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down dispatch-core")
	gracefulShutdown(server, logger, 15*time.Second)
	return ctx.Err()
}

func startServer(server *http.Server, logger logx.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("dispatch-core listening", logx.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

func gracefulShutdown(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Error("graceful shutdown error", logx.Err(err))
	}
}

// closeResources drains queued notifications before closing the producer they go to.
func closeResources(logger logx.Logger, dispatcher *notify.Dispatcher, producer *kafka.Producer, pool *pgxpool.Pool) {
	if dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := dispatcher.Close(ctx); err != nil {
			logger.Warn("notification queue not drained", logx.Err(err))
		}
		cancel()
	}
	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", logx.Err(err))
	}
	if pool != nil {
		pool.Close()
	}
}
