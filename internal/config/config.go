package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/logx"
)

// Config stores service settings.
type Config struct {
	Port     int
	LogLevel string
	Storage  Storage
	DB       DB
	Blob     Blob
	Kafka    Kafka
	Notify   Notify
}

// Storage selects and tunes the storage backends.
type Storage struct {
	Policy           domain.Policy
	DataDir          string
	LockTimeout      time.Duration
	MirrorPeople     bool
	OperationTimeout time.Duration
}

// DB is the PostgreSQL connection for the relational store.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN builds a postgres connection URL.
func (d DB) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Pass),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Blob configures the object-storage bucket. An empty bucket disables the blob store.
// Empty keys use the default AWS credential chain.
type Blob struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
	Prefix          string
	CacheTTL        time.Duration
}

// Enabled reports whether a bucket is configured.
func (b Blob) Enabled() bool { return b.Bucket != "" }

// Kafka configures the notification publisher. No brokers means log-only notifications.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Notify tunes notification delivery.
type Notify struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:     DefaultPort(),
		LogLevel: DefaultLogLevel(),
		Storage:  DefaultStorage(),
		DB:       DefaultDB(),
		Blob:     DefaultBlob(),
		Kafka:    DefaultKafka(),
		Notify:   DefaultNotify(),
	}

	var err error
	if cfg.Port, err = envInt("PORT", cfg.Port); err != nil {
		return nil, err
	}

	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)

	policy := envString("STORAGE_POLICY", string(cfg.Storage.Policy))
	cfg.Storage.DataDir = envString("DATA_DIR", cfg.Storage.DataDir)
	if cfg.Storage.LockTimeout, err = envDuration("STORAGE_LOCK_TIMEOUT", cfg.Storage.LockTimeout); err != nil {
		return nil, err
	}
	if cfg.Storage.MirrorPeople, err = envBool("STORAGE_MIRROR_PEOPLE", cfg.Storage.MirrorPeople); err != nil {
		return nil, err
	}
	if cfg.Storage.OperationTimeout, err = envDuration("STORAGE_OPERATION_TIMEOUT", cfg.Storage.OperationTimeout); err != nil {
		return nil, err
	}

	cfg.DB.Host = envString("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envString("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = envString("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Pass = envString("POSTGRES_PASSWORD", cfg.DB.Pass)
	cfg.DB.Name = envString("POSTGRES_DB", cfg.DB.Name)
	if _, err := strconv.Atoi(cfg.DB.Port); err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_PORT %q: %w", cfg.DB.Port, err)
	}

	cfg.Blob.Bucket = envString("BLOB_S3_BUCKET", cfg.Blob.Bucket)
	cfg.Blob.Region = envString("BLOB_S3_REGION", cfg.Blob.Region)
	cfg.Blob.Endpoint = envString("BLOB_S3_ENDPOINT", cfg.Blob.Endpoint)
	cfg.Blob.AccessKeyID = envString("BLOB_S3_ACCESS_KEY_ID", cfg.Blob.AccessKeyID)
	cfg.Blob.SecretAccessKey = envString("BLOB_S3_SECRET_ACCESS_KEY", cfg.Blob.SecretAccessKey)
	cfg.Blob.Prefix = envString("BLOB_S3_PREFIX", cfg.Blob.Prefix)
	if cfg.Blob.PathStyle, err = envBool("BLOB_S3_PATH_STYLE", cfg.Blob.PathStyle); err != nil {
		return nil, err
	}
	if cfg.Blob.CacheTTL, err = envDuration("BLOB_CACHE_TTL", cfg.Blob.CacheTTL); err != nil {
		return nil, err
	}

	cfg.Kafka.Brokers = splitList(envString("KAFKA_BROKERS", strings.Join(cfg.Kafka.Brokers, ",")))
	cfg.Kafka.Topic = envString("KAFKA_NOTIFICATIONS_TOPIC", cfg.Kafka.Topic)

	if cfg.Notify.Workers, err = envInt("NOTIFY_WORKERS", cfg.Notify.Workers); err != nil {
		return nil, err
	}
	if cfg.Notify.QueueSize, err = envInt("NOTIFY_QUEUE_SIZE", cfg.Notify.QueueSize); err != nil {
		return nil, err
	}
	if cfg.Notify.MaxAttempts, err = envInt("NOTIFY_MAX_ATTEMPTS", cfg.Notify.MaxAttempts); err != nil {
		return nil, err
	}
	if cfg.Notify.BaseDelay, err = envDuration("NOTIFY_BASE_DELAY", cfg.Notify.BaseDelay); err != nil {
		return nil, err
	}
	if cfg.Notify.MaxDelay, err = envDuration("NOTIFY_MAX_DELAY", cfg.Notify.MaxDelay); err != nil {
		return nil, err
	}

	fs := pflag.CommandLine
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&policy, "storage-policy", policy, "storage policy: local, remote or hybrid")
	fs.StringVar(&cfg.Storage.DataDir, "data-dir", cfg.Storage.DataDir, "directory of the local document store")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg.Storage.Policy = domain.Policy(policy)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if _, err := logx.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if !c.Storage.Policy.Valid() {
		return fmt.Errorf("invalid storage policy: %q", c.Storage.Policy)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("data dir required")
	}
	if c.Storage.Policy == domain.PolicyHybrid && !c.Blob.Enabled() {
		return fmt.Errorf("storage policy hybrid needs BLOB_S3_BUCKET")
	}
	if c.Notify.Workers <= 0 || c.Notify.QueueSize <= 0 || c.Notify.MaxAttempts <= 0 {
		return fmt.Errorf("notify workers, queue size and attempts must be positive")
	}
	if (c.Blob.AccessKeyID == "") != (c.Blob.SecretAccessKey == "") {
		return fmt.Errorf("BLOB_S3_ACCESS_KEY_ID and BLOB_S3_SECRET_ACCESS_KEY go together")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_NOTIFICATIONS_TOPIC required with KAFKA_BROKERS")
	}
	return nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: negative", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
