package stockwatch

import (
	"context"
	"log/slog"
	"time"
)

// Source reports how many units are currently available.
type Source interface {
	Available(ctx context.Context) (int, error)
}

// Watcher polls the available-unit count on a fixed interval and hands
// each reading to the callback. It replaces ad-hoc client polling state
// with a single reader whose lifetime is the ctx it was started with.
type Watcher struct {
	source   Source
	interval time.Duration
	onUpdate func(available int)
	logger   *slog.Logger
}

func New(source Source, interval time.Duration, onUpdate func(int), logger *slog.Logger) *Watcher {
	return &Watcher{
		source:   source,
		interval: interval,
		onUpdate: onUpdate,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled. It reads once immediately so the
// first update does not wait a full interval.
func (w *Watcher) Run(ctx context.Context) {
	w.poll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	available, err := w.source.Available(ctx)
	if err != nil {
		w.logger.Error("failed to read available stock", slog.String("error", err.Error()))
		return
	}
	w.onUpdate(available)
}
