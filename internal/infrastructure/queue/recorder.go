package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/atlascrm/crm-system/internal/api/metrics"
	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ActivityWriter persists audit entries off the request path. Entries are
// sharded across a fixed set of workers by entity id, so the log preserves
// per-entity ordering. A full worker channel drops the entry with a warning
// rather than blocking the mutation that produced it.
type ActivityWriter struct {
	workers []chan domain.ActivityEntry
	repo    ports.ActivityRepository
	log     zerolog.Logger
}

// NewActivityWriter creates an ActivityWriter with numWorkers sharded
// workers. If numWorkers <= 0, defaultWorkers is used.
func NewActivityWriter(numWorkers int, repo ports.ActivityRepository, log zerolog.Logger) *ActivityWriter {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	w := &ActivityWriter{
		workers: make([]chan domain.ActivityEntry, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range w.workers {
		w.workers[i] = make(chan domain.ActivityEntry, channelBuffer)
	}
	return w
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (w *ActivityWriter) Start(ctx context.Context) {
	for i, ch := range w.workers {
		go w.runWorker(ctx, i, ch)
	}
}

// Record implements ports.ActivityRecorder. It never blocks the caller.
func (w *ActivityWriter) Record(entry domain.ActivityEntry) {
	idx := w.shardIndex(entry.EntityType + ":" + entry.EntityID)
	select {
	case w.workers[idx] <- entry:
		metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(w.workers[idx])))
	default:
		w.log.Warn().
			Str("entity_type", entry.EntityType).
			Str("entity_id", entry.EntityID).
			Str("action", entry.Action).
			Msg("activity queue full, entry dropped")
	}
}

// shardIndex maps an entity key deterministically to a worker index.
func (w *ActivityWriter) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % len(w.workers)
}

func (w *ActivityWriter) runWorker(ctx context.Context, id int, ch <-chan domain.ActivityEntry) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-ch:
			if !ok {
				return
			}
			if err := w.repo.Insert(ctx, &entry); err != nil {
				w.log.Error().Err(err).
					Str("entity_type", entry.EntityType).
					Str("entity_id", entry.EntityID).
					Int("worker_id", id).
					Msg("activity entry write failed")
			}
			metrics.ActivityQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
		}
	}
}
