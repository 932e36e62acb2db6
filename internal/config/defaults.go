package config

import (
	"time"

	"github.com/y0lz/backend-json/internal/domain"
)

const (
	defaultPort     = 8080
	defaultLogLevel = "info"
)

var defaultStorage = Storage{
	Policy:           domain.PolicyLocal,
	DataDir:          "./data",
	LockTimeout:      2 * time.Second,
	OperationTimeout: 5 * time.Second,
}

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "dispatch",
}

var defaultBlob = Blob{
	Region: "us-east-1",
}

var defaultKafka = Kafka{
	Topic: "notifications",
}

var defaultNotify = Notify{
	Workers:     4,
	QueueSize:   256,
	MaxAttempts: 4,
	BaseDelay:   150 * time.Millisecond,
	MaxDelay:    2 * time.Second,
}

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultLogLevel returns the default log level.
func DefaultLogLevel() string {
	return defaultLogLevel
}

// DefaultStorage returns the default storage settings.
func DefaultStorage() Storage {
	return defaultStorage
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultBlob returns the default blob settings (disabled).
func DefaultBlob() Blob {
	return defaultBlob
}

// DefaultKafka returns the default Kafka settings (no brokers).
func DefaultKafka() Kafka {
	return defaultKafka
}

// DefaultNotify returns the default notification delivery settings.
func DefaultNotify() Notify {
	return defaultNotify
}
