package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/y0lz/backend-json/internal/logx"
)

// ErrClosed is returned by Notify after Close.
var ErrClosed = errors.New("notify: dispatcher closed")

// DispatcherConfig sizes the queue and the worker pool.
type DispatcherConfig struct {
	Workers   int
	QueueSize int
	// SendTimeout bounds one delivery including its retries.
	SendTimeout time.Duration
}

type job struct {
	ctx        context.Context
	externalID string
	message    string
}

// Dispatcher is an asynchronous Notifier: Notify queues the message and
// returns at once, workers deliver it through next. Failures are logged and
// counted, never returned to the caller.
type Dispatcher struct {
	next    Notifier
	logger  logx.Logger
	results *prometheus.CounterVec
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

// NewDispatcher starts cfg.Workers workers. results may be nil.
func NewDispatcher(next Notifier, cfg DispatcherConfig, logger logx.Logger, results *prometheus.CounterVec) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	d := &Dispatcher{
		next:    next,
		logger:  logger,
		results: results,
		timeout: cfg.SendTimeout,
		queue:   make(chan job, cfg.QueueSize),
	}
	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.worker()
	}
	return d
}

// Notify implements Notifier. A full queue drops the message.
func (d *Dispatcher) Notify(ctx context.Context, externalID, message string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	// доставка не должна зависеть от отмены запроса
	j := job{ctx: context.WithoutCancel(ctx), externalID: externalID, message: message}
	select {
	case d.queue <- j:
		return nil
	default:
		d.count(ResultDropped)
		d.logger.Warn("notification dropped, queue full",
			logx.Event("notification_dropped"),
			logx.String("external_contact_id", externalID),
		)
		return nil
	}
}

// Close stops accepting messages and waits for queued ones until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.timeout)
	defer cancel()
	if err := d.next.Notify(ctx, j.externalID, j.message); err != nil {
		d.count(ResultFailed)
		d.logger.Error("notification failed",
			logx.Event("notification_failed"),
			logx.String("external_contact_id", j.externalID),
			logx.Err(err),
		)
		return
	}
	d.count(ResultSent)
}

func (d *Dispatcher) count(result string) {
	if d.results != nil {
		d.results.WithLabelValues(result).Inc()
	}
}
