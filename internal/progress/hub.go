package progress

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// HubConfig controls buffering and batching.
type HubConfig struct {
	// BufferSize is the internal channel capacity (default 1024).
	BufferSize int
	// MaxBatchEvents flushes once this many events queue (default 256).
	MaxBatchEvents int
	// MaxBatchWait flushes after this duration even for small batches
	// (default 250ms).
	MaxBatchWait time.Duration
	// SinkTimeout bounds each sink call during a flush (default 5s).
	SinkTimeout time.Duration
	// Logger is used for drop warnings; nil means silent.
	Logger *zap.Logger
}

// Hub fans events out to sinks. Emit never blocks the caller; under
// backpressure events are dropped and counted.
type Hub struct {
	cfg     HubConfig
	sinks   []Sink
	events  chan Event
	doneCh  chan struct{}
	logger  *zap.Logger
	dropped atomic.Int64
	closed  atomic.Bool

	closeOnce sync.Once
}

// NewHub starts the background flush goroutine and returns a hub ready to
// accept events.
func NewHub(cfg HubConfig, sinks ...Sink) *Hub {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.MaxBatchEvents <= 0 {
		cfg.MaxBatchEvents = 256
	}
	if cfg.MaxBatchWait <= 0 {
		cfg.MaxBatchWait = 250 * time.Millisecond
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		cfg:    cfg,
		sinks:  append([]Sink(nil), sinks...),
		events: make(chan Event, cfg.BufferSize),
		doneCh: make(chan struct{}),
		logger: logger,
	}
	go h.run()
	return h
}

// Emit enqueues an event. Invalid events are discarded; a full buffer drops
// the event rather than blocking a worker.
func (h *Hub) Emit(evt Event) {
	if h == nil || h.closed.Load() {
		return
	}
	if err := evt.Validate(); err != nil {
		h.logger.Debug("discarding invalid progress event", zap.Error(err))
		return
	}
	select {
	case h.events <- evt:
	default:
		if n := h.dropped.Add(1); n == 1 || n%100 == 0 {
			h.logger.Warn("progress events dropped due to backpressure", zap.Int64("total_dropped", n))
		}
	}
}

// Close drains buffered events, flushes and closes every sink, and waits for
// the background goroutine to exit.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		close(h.events)
	})
	select {
	case <-h.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}
	var firstErr error
	for _, s := range h.sinks {
		if err := s.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *Hub) run() {
	defer close(h.doneCh)

	batch := make([]Event, 0, h.cfg.MaxBatchEvents)
	timer := time.NewTimer(h.cfg.MaxBatchWait)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.SinkTimeout)
		for _, s := range h.sinks {
			if err := s.Consume(ctx, batch); err != nil {
				h.logger.Warn("progress sink consume failed", zap.Error(err))
			}
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case evt, ok := <-h.events:
			if !ok {
				flush()
				return
			}
			batch = append(batch, evt)
			if len(batch) >= h.cfg.MaxBatchEvents {
				flush()
			}
		case <-timer.C:
			flush()
			timer.Reset(h.cfg.MaxBatchWait)
		}
	}
}
