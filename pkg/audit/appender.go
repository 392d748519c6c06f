package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"sentinel-hq/ceres/pkg/validation"
)

// AppenderConfig contains configuration for the async appender.
type AppenderConfig struct {
	// Buffer is the size of the async write channel.
	// Default: 1000
	Buffer int

	// WriteTimeout bounds each storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultAppenderConfig returns the default appender configuration.
func DefaultAppenderConfig() *AppenderConfig {
	return &AppenderConfig{
		Buffer:       1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Appender mirrors decisions to the audit store asynchronously. Appends are
// fire-and-forget: a full buffer drops the record with a warning, and a
// storage failure is logged; neither ever blocks or alters a decision
// already returned to the caller.
type Appender struct {
	store   Store
	config  *AppenderConfig
	records chan *Record
	dropped atomic.Int64
	wg      sync.WaitGroup
	done    chan struct{}
	once    sync.Once
	logger  *slog.Logger
}

// NewAppender starts the background writer.
func NewAppender(store Store, config *AppenderConfig, logger *slog.Logger) *Appender {
	if config == nil {
		config = DefaultAppenderConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Appender{
		store:   store,
		config:  config,
		records: make(chan *Record, config.Buffer),
		done:    make(chan struct{}),
		logger:  logger.With("component", "audit.appender"),
	}

	a.wg.Add(1)
	go a.worker()

	return a
}

// Append enqueues a decision for async persistence. Never blocks.
func (a *Appender) Append(req *validation.Request, decision *validation.Decision) {
	record := NewRecord(req, decision)

	select {
	case a.records <- record:
	default:
		dropped := a.dropped.Add(1)
		a.logger.Warn("audit buffer full, record dropped",
			"request_id", record.RequestID,
			"dropped_total", dropped,
		)
	}
}

// Dropped returns how many records were dropped to buffer pressure.
func (a *Appender) Dropped() int64 {
	return a.dropped.Load()
}

// Shutdown stops the worker after draining pending records.
func (a *Appender) Shutdown() {
	a.once.Do(func() {
		close(a.done)
	})
	a.wg.Wait()
}

// worker drains the record channel into the store.
func (a *Appender) worker() {
	defer a.wg.Done()

	for {
		select {
		case <-a.done:
			// Drain whatever is already buffered.
			for {
				select {
				case record := <-a.records:
					a.write(record)
				default:
					return
				}
			}
		case record := <-a.records:
			a.write(record)
		}
	}
}

// write persists one record with a bounded timeout. Failures are logged,
// never surfaced.
func (a *Appender) write(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.WriteTimeout)
	defer cancel()

	if err := a.store.Append(ctx, record); err != nil {
		a.logger.Error("failed to append audit record",
			"request_id", record.RequestID,
			"error", err,
		)
	}
}
