package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"forkful/internal/platform/metrics"
)

const (
	defaultBatchSize     = 100
	defaultFlushInterval = time.Second
	shutdownFlushTimeout = 5 * time.Second
)

// Buffered is a fail-open Publisher: Emit enqueues into a bounded ring buffer
// and returns immediately; Run drains the buffer into a Sink in batches.
// When the buffer is full the oldest event is dropped and counted.
type Buffered struct {
	buf       *ringBuffer
	sink      Sink
	logger    *slog.Logger
	metrics   *metrics.Metrics
	batchSize int
	interval  time.Duration

	notify chan struct{}
	once   sync.Once
	done   chan struct{}
}

// BufferedOption configures a Buffered publisher.
type BufferedOption func(*Buffered)

func WithBufferSize(n int) BufferedOption {
	return func(b *Buffered) {
		b.buf = newRingBuffer(n)
	}
}

func WithBatchSize(n int) BufferedOption {
	return func(b *Buffered) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

func WithFlushInterval(d time.Duration) BufferedOption {
	return func(b *Buffered) {
		if d > 0 {
			b.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) BufferedOption {
	return func(b *Buffered) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) BufferedOption {
	return func(b *Buffered) {
		b.metrics = m
	}
}

// NewBuffered creates a publisher draining into sink. Call Run to start the
// worker.
func NewBuffered(sink Sink, opts ...BufferedOption) *Buffered {
	b := &Buffered{
		buf:       newRingBuffer(defaultBufferSize),
		sink:      sink,
		logger:    slog.Default(),
		batchSize: defaultBatchSize,
		interval:  defaultFlushInterval,
		notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Emit never blocks and never fails.
func (b *Buffered) Emit(ctx context.Context, event Event) error {
	if b.buf.enqueue(stamp(ctx, event)) {
		b.metrics.IncActivityDropped()
	}
	if b.buf.size() >= b.batchSize {
		select {
		case b.notify <- struct{}{}:
		default:
		}
	}
	return nil
}

// Run drains the buffer until ctx ends, then performs a final bounded flush.
func (b *Buffered) Run(ctx context.Context) error {
	defer b.once.Do(func() { close(b.done) })

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
			defer cancel()
			b.Flush(flushCtx)
			return nil
		case <-ticker.C:
			b.Flush(ctx)
		case <-b.notify:
			b.Flush(ctx)
		}
	}
}

// Done is closed when Run returns.
func (b *Buffered) Done() <-chan struct{} {
	return b.done
}

// Flush writes everything currently buffered. Batches the sink rejects are
// logged and discarded.
func (b *Buffered) Flush(ctx context.Context) {
	for {
		batch := b.buf.dequeueBatch(b.batchSize)
		if len(batch) == 0 {
			return
		}
		if err := b.sink.Write(ctx, batch); err != nil {
			b.logger.WarnContext(ctx, "activity sink write failed",
				"events", len(batch),
				"error", err,
			)
			continue
		}
		b.metrics.AddActivityEmitted(len(batch))
	}
}

// Pending returns the number of buffered events.
func (b *Buffered) Pending() int {
	return b.buf.size()
}

// Dropped returns how many events were discarded because the buffer was full.
func (b *Buffered) Dropped() int64 {
	return b.buf.droppedCount()
}
