package authgate

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Metric is a single timed operation outcome.
type Metric struct {
	Operation     string
	Duration      time.Duration
	Success       bool
	CorrelationID string
	Timestamp     time.Time
	Metadata      map[string]any
}

// Sink consumes flushed errors and metrics. Implementations must not block
// the authentication path; errors returned from a sink are logged and
// dropped.
type Sink interface {
	RecordError(ctx context.Context, err *AuthError) error
	RecordMetric(ctx context.Context, metric Metric) error
}

// SinkFunc pair adapts plain functions to the Sink interface.
type SinkFuncs struct {
	OnError  func(ctx context.Context, err *AuthError) error
	OnMetric func(ctx context.Context, metric Metric) error
}

func (s SinkFuncs) RecordError(ctx context.Context, err *AuthError) error {
	if s.OnError == nil {
		return nil
	}
	return s.OnError(ctx, err)
}

func (s SinkFuncs) RecordMetric(ctx context.Context, metric Metric) error {
	if s.OnMetric == nil {
		return nil
	}
	return s.OnMetric(ctx, metric)
}

type noopSink struct{}

func (noopSink) RecordError(context.Context, *AuthError) error { return nil }
func (noopSink) RecordMetric(context.Context, Metric) error { return nil }

func normalizeSink(s Sink) Sink {
	if s == nil {
		return noopSink{}
	}
	return s
}

const (
	errorQueueLimit  = 10
	metricQueueLimit = 20
)

// Collector buffers errors and performance metrics in bounded in-memory
// queues and hands each full queue to the configured Sink. Buffering is fire
// and forget local telemetry, not a durable log: with the default noop sink a
// full queue is simply discarded. It is constructed explicitly and injected
// wherever it is needed, never held as package state.
type Collector struct {
	mu      sync.Mutex
	errors  []*AuthError
	metrics []Metric
	sink    Sink
	logger  Logger
}

type CollectorOption func(*Collector)

func WithSink(s Sink) CollectorOption {
	return func(c *Collector) {
		c.sink = normalizeSink(s)
	}
}

func WithCollectorLogger(l Logger) CollectorOption {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{
		sink:   noopSink{},
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Error enqueues an AuthError, flushing the queue when it reaches its cap.
func (c *Collector) Error(ctx context.Context, err *AuthError) {
	if err == nil {
		return
	}

	c.mu.Lock()
	c.errors = append(c.errors, err)
	flush := len(c.errors) >= errorQueueLimit
	var batch []*AuthError
	if flush {
		batch = c.errors
		c.errors = nil
	}
	c.mu.Unlock()

	for _, e := range batch {
		if sinkErr := c.sink.RecordError(ctx, e); sinkErr != nil {
			c.logger.Warn("telemetry sink dropped error", "error", sinkErr)
		}
	}
}

// Metric enqueues a performance metric, flushing at the queue cap.
func (c *Collector) Metric(ctx context.Context, m Metric) {
	c.mu.Lock()
	c.metrics = append(c.metrics, m)
	flush := len(c.metrics) >= metricQueueLimit
	var batch []Metric
	if flush {
		batch = c.metrics
		c.metrics = nil
	}
	c.mu.Unlock()

	for _, metric := range batch {
		if sinkErr := c.sink.RecordMetric(ctx, metric); sinkErr != nil {
			c.logger.Warn("telemetry sink dropped metric", "error", sinkErr)
		}
	}
}

// Pending reports queued counts, used by tests and health endpoints.
func (c *Collector) Pending() (errors, metrics int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors), len(c.metrics)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewCorrelationID returns a ULID so correlation IDs sort by time in logs.
func NewCorrelationID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
