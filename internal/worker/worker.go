// Package worker contains the background tagging loop that drives
// unprocessed content items through metadata generation.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"contentapi/internal/ai"
	"contentapi/internal/events"
	"contentapi/internal/model"
	"contentapi/internal/repository"
	"contentapi/internal/storage"
)

// TaggingWorker polls the record store for unprocessed items and enriches
// them one at a time: generate metadata, merge over the upload-time
// metadata, mark tagged, notify subscribers. Items are processed
// sequentially so model invocations never pile up; staleness is bounded by
// roughly one poll interval plus processing time.
type TaggingWorker struct {
	repo      repository.ContentRepository
	backend   storage.Backend
	generator ai.Generator
	events    *events.Broadcaster
	interval  time.Duration
	logger    *slog.Logger

	processed prometheus.Counter
	failed    prometheus.Counter
}

// New constructs a TaggingWorker and registers its metrics.
func New(
	repo repository.ContentRepository,
	backend storage.Backend,
	generator ai.Generator,
	broadcaster *events.Broadcaster,
	interval time.Duration,
	reg prometheus.Registerer,
) (*TaggingWorker, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	w := &TaggingWorker{
		repo:      repo,
		backend:   backend,
		generator: generator,
		events:    broadcaster,
		interval:  interval,
		logger:    slog.Default().With("component", "tagging-worker"),
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tagging_items_processed_total",
			Help: "Total number of content items successfully tagged.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tagging_items_failed_total",
			Help: "Total number of content items whose tagging attempt failed.",
		}),
	}

	if reg != nil {
		if err := reg.Register(w.processed); err != nil {
			return nil, err
		}
		if err := reg.Register(w.failed); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Run executes the poll loop until ctx is canceled. It is meant to run as a
// single long-lived goroutine beside the request-handling surface.
func (w *TaggingWorker) Run(ctx context.Context) {
	w.logger.Info("worker started", "poll_interval", w.interval.String())
	for {
		w.RunCycle(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return
		case <-time.After(w.interval):
		}
	}
}

// RunCycle performs one scan-and-process pass. A single item's failure is
// logged and skipped; it stays unprocessed and is retried on a later cycle.
func (w *TaggingWorker) RunCycle(ctx context.Context) {
	items, err := w.repo.ListByStatus(ctx, model.StatusUnprocessed)
	if err != nil {
		w.logger.Error("scan for unprocessed items failed", "err", err)
		return
	}

	for i := range items {
		if ctx.Err() != nil {
			return
		}
		if err := w.processItem(ctx, &items[i]); err != nil {
			w.failed.Inc()
			w.logger.Error("processing item failed", "id", items[i].ID, "filename", items[i].OriginalFilename, "err", err)
			continue
		}
		w.processed.Inc()
	}
}

func (w *TaggingWorker) processItem(ctx context.Context, item *model.ContentItem) error {
	w.logger.Info("processing item", "id", item.ID, "filename", item.OriginalFilename)

	// The generator degrades internally; it never errors.
	generated := w.generator.GenerateMetadata(ctx, w.backend.Path(item.StoragePath), "")

	item.Metadata = item.Metadata.Merge(generated)
	item.Status = model.StatusTagged

	if _, err := w.repo.Update(ctx, item); err != nil {
		return fmt.Errorf("persist tagged item: %w", err)
	}

	w.events.BroadcastEvent(events.NewUpdateEvent(item.ID))
	w.logger.Info("item tagged", "id", item.ID)
	return nil
}
