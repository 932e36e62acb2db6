package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	"github.com/y0lz/backend-json/internal/blobstore"
	"github.com/y0lz/backend-json/internal/blobstore/s3"
	"github.com/y0lz/backend-json/internal/config"
	"github.com/y0lz/backend-json/internal/docstore"
	"github.com/y0lz/backend-json/internal/http/handlers"
	"github.com/y0lz/backend-json/internal/http/middleware"
	"github.com/y0lz/backend-json/internal/http/router"
	"github.com/y0lz/backend-json/internal/logx"
	"github.com/y0lz/backend-json/internal/metrics"
	"github.com/y0lz/backend-json/internal/notify"
	"github.com/y0lz/backend-json/internal/repository"
	"github.com/y0lz/backend-json/internal/service/availability"
	"github.com/y0lz/backend-json/internal/service/lifecycle"
	"github.com/y0lz/backend-json/internal/service/migration"
	"github.com/y0lz/backend-json/internal/service/reset"
	"github.com/y0lz/backend-json/internal/storage"
	"github.com/y0lz/backend-json/internal/transport/kafka"
)

type (
	poolOpener    func(ctx context.Context, dsn string) (*pgxpool.Pool, error)
	objectsOpener func(ctx context.Context, cfg config.Blob) (blobstore.ObjectStore, error)
	producerMaker func(brokers []string, topic string) (*kafka.Producer, error)
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	loadConfig  func() (*config.Config, error)
	openPool    poolOpener
	openObjects objectsOpener
	newProducer producerMaker
	logFatalf   func(string, ...interface{})
	logs        loggerFactory
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		loadConfig:  config.Load,
		openPool:    repository.NewLazyPool,
		openObjects: openS3,
		newProducer: kafka.NewProducer,
		logFatalf:   log.Fatalf,
		logs:        loggerFactory{out: os.Stdout, service: "dispatch-core"},
	}
}

func openS3(ctx context.Context, cfg config.Blob) (blobstore.ObjectStore, error) {
	c, err := s3.New(ctx, s3.Config{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		PathStyle:       cfg.PathStyle,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// WithConfig replaces config loading, mostly for tests
func (b *ContainerBuilder) WithConfig(cfg *config.Config) *ContainerBuilder {
	if cfg != nil {
		b.loadConfig = func() (*config.Config, error) { return cfg, nil }
	}
	return b
}

// WithPoolOpener sets the database pool constructor
func (b *ContainerBuilder) WithPoolOpener(fn func(context.Context, string) (*pgxpool.Pool, error)) *ContainerBuilder {
	if fn != nil {
		b.openPool = fn
	}
	return b
}

// WithObjectStore sets the object storage constructor used by the blob store
func (b *ContainerBuilder) WithObjectStore(fn func(context.Context, config.Blob) (blobstore.ObjectStore, error)) *ContainerBuilder {
	if fn != nil {
		b.openObjects = fn
	}
	return b
}

// WithProducer sets the Kafka producer constructor
func (b *ContainerBuilder) WithProducer(fn func([]string, string) (*kafka.Producer, error)) *ContainerBuilder {
	if fn != nil {
		b.newProducer = fn
	}
	return b
}

// WithLogOutput redirects process logs and tags them with the binary name.
// dispatchctl logs to stderr so that stdout carries only command results.
func (b *ContainerBuilder) WithLogOutput(w io.Writer, service string) *ContainerBuilder {
	if w != nil {
		b.logs = loggerFactory{out: w, service: service}
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

// build builds and returns a new dig container
func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx, b.loadConfig, b.logs); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerStorage(container, b.openPool, b.openObjects); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if err := registerNotify(container, b.newProducer); err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context, loadConfig func() (*config.Config, error), logs loggerFactory) error {
	return provideAll(container,
		func() context.Context { return ctx },
		logs.New,
		loadConfig,
		func() (*prometheus.Registry, error) {
			reg := prometheus.NewRegistry()
			if err := reg.Register(collectors.NewGoCollector()); err != nil {
				return nil, err
			}
			if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
				return nil, err
			}
			return reg, nil
		},
		func(reg *prometheus.Registry) prometheus.Registerer { return reg },
		func(reg *prometheus.Registry) prometheus.Gatherer { return reg },
		metrics.NewSet,
		func(cfg *config.Config) time.Duration { return cfg.Storage.OperationTimeout },
	)
}

func registerStorage(container *dig.Container, openPool poolOpener, openObjects objectsOpener) error {
	docProvider := func(cfg *config.Config, logger logx.Logger, set *metrics.Set) (*docstore.Store, error) {
		return docstore.New(docstore.Config{
			Dir:         cfg.Storage.DataDir,
			LockTimeout: cfg.Storage.LockTimeout,
		}, logger.With(logx.String("backend", "local")), set.DegradedWrites)
	}
	poolProvider := func(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
		return openPool(ctx, cfg.DB.DSN())
	}
	// nil, когда бакет не настроен
	blobProvider := func(ctx context.Context, cfg *config.Config, logger logx.Logger) (*blobstore.Store, error) {
		if !cfg.Blob.Enabled() {
			return nil, nil
		}
		objects, err := openObjects(ctx, cfg.Blob)
		if err != nil {
			return nil, err
		}
		return blobstore.New(objects, blobstore.Config{
			Prefix:   cfg.Blob.Prefix,
			CacheTTL: cfg.Blob.CacheTTL,
		}, logger.With(logx.String("backend", "blob"))), nil
	}
	facadeProvider := func(
		cfg *config.Config,
		logger logx.Logger,
		doc *docstore.Store,
		rel *repository.Store,
		blob *blobstore.Store,
	) (*storage.Facade, error) {
		b := storage.Backends{Local: doc, Relational: rel}
		if blob != nil {
			b.Blob = blob
		}
		return storage.New(b, storage.Options{
			Policy:       cfg.Storage.Policy,
			MirrorPeople: cfg.Storage.MirrorPeople,
			Logger:       logger,
		})
	}
	return provideAll(container,
		docProvider,
		poolProvider,
		repository.NewStore,
		blobProvider,
		facadeProvider,
	)
}

func registerNotify(container *dig.Container, newProducer producerMaker) error {
	producerProvider := func(cfg *config.Config) (*kafka.Producer, error) {
		return newProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	dispatcherProvider := func(
		cfg *config.Config,
		logger logx.Logger,
		set *metrics.Set,
		producer *kafka.Producer,
	) *notify.Dispatcher {
		var gateway notify.Notifier = notify.NewLogNotifier(logger)
		if producer != nil {
			gateway = notify.NewKafkaNotifier(producer)
		}
		retrying := notify.NewRetryingNotifier(gateway, logger, set.NotifyRetries, notify.RetryConfig{
			MaxAttempts: cfg.Notify.MaxAttempts,
			BaseDelay:   cfg.Notify.BaseDelay,
			MaxDelay:    cfg.Notify.MaxDelay,
		})
		return notify.NewDispatcher(retrying, notify.DispatcherConfig{
			Workers:   cfg.Notify.Workers,
			QueueSize: cfg.Notify.QueueSize,
		}, logger, set.Notifications)
	}
	return provideAll(container, producerProvider, dispatcherProvider)
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		func(f *storage.Facade, d *notify.Dispatcher, logger logx.Logger, timeout time.Duration) *lifecycle.Manager {
			return lifecycle.NewManager(f, d, logger, timeout)
		},
		func(f *storage.Facade, timeout time.Duration) *availability.Service {
			return availability.NewService(f, timeout)
		},
		func(f *storage.Facade, logger logx.Logger, set *metrics.Set) *migration.Engine {
			return migration.NewEngine(f, logger, set.SyncRecords)
		},
		func(f *storage.Facade, logger logx.Logger, set *metrics.Set) *reset.Service {
			return reset.NewService(f, logger, set.ShiftsReset)
		},
	)
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      3 * time.Minute,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		handlers.New,
		handlers.NewStorageAdmin,
		handlers.NewPeopleSyncer,
		handlers.NewShiftResetter,
		handlers.NewAvailabilityQuery,
		handlers.NewLifecycleUsecase,
		handlers.NewAdminHandler,
		handlers.NewLifecycleHandler,
		middleware.NewMetrics,
		router.New,
		serverProvider,
	)
}
