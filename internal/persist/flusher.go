package persist

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/terra-clan/recruit-portal/internal/metrics"
)

// Source writes its snapshot to its own Persister. The source owns the
// write so it can order it against its own purges.
type Source interface {
	Persist(ctx context.Context) error
}

// Flusher asks the source to write its snapshot on a ticker, but only when
// something marked it dirty since the last write.
type Flusher struct {
	source   Source
	interval time.Duration
	metrics  *metrics.Metrics

	dirty atomic.Bool
	mu    sync.Mutex // serializes writes
	done  chan struct{}
}

// NewFlusher creates a new flush worker
func NewFlusher(source Source, interval time.Duration, m *metrics.Metrics) *Flusher {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	return &Flusher{
		source:   source,
		interval: interval,
		metrics:  m,
		done:     make(chan struct{}),
	}
}

// MarkDirty schedules a write on the next tick
func (f *Flusher) MarkDirty() {
	f.dirty.Store(true)
}

// Start begins the flush worker in a goroutine
func (f *Flusher) Start(ctx context.Context) {
	go f.run(ctx)
}

// Done is closed once the worker has stopped and made its final write
func (f *Flusher) Done() <-chan struct{} {
	return f.done
}

func (f *Flusher) run(ctx context.Context) {
	defer close(f.done)
	slog.Debug("snapshot flusher started", "interval", f.interval)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Last write with a fresh context; ctx is already cancelled.
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			f.flushIfDirty(final)
			cancel()
			slog.Debug("snapshot flusher stopped")
			return
		case <-ticker.C:
			f.flushIfDirty(ctx)
		}
	}
}

func (f *Flusher) flushIfDirty(ctx context.Context) {
	if !f.dirty.Swap(false) {
		return
	}
	if err := f.Flush(ctx); err != nil {
		f.dirty.Store(true)
		slog.Error("failed to flush snapshot", "error", err)
	}
}

// Flush writes the current snapshot now
func (f *Flusher) Flush(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.source.Persist(ctx)
	f.metrics.ObserveSnapshotWrite(err)
	return err
}
