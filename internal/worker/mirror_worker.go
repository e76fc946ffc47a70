package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"lendtrack/internal/amqp"
	"lendtrack/internal/storage"
)

// collectionKeys maps the collection names carried in change messages onto
// the fixed KV keys.
var collectionKeys = map[string]string{
	"groups":      storage.KeyGroups,
	"members":     storage.KeyMembers,
	"collections": storage.KeyCollections,
}

// MirrorWorker copies changed collections from the primary store into a
// mirror store. Change messages carry only the collection name and a
// revision; the worker always reads the current value from the primary, so
// duplicate and out-of-order deliveries converge on the same mirror state.
type MirrorWorker struct {
	primary storage.KV
	mirror  storage.KV

	mu       sync.Mutex
	mirrored map[string]int64 // collection name -> highest revision applied
}

func NewMirrorWorker(primary, mirror storage.KV) *MirrorWorker {
	return &MirrorWorker{
		primary:  primary,
		mirror:   mirror,
		mirrored: make(map[string]int64),
	}
}

// HandleChangeMessage processes a single collection-change message.
func (w *MirrorWorker) HandleChangeMessage(ctx context.Context, msg *amqp.CollectionChangedMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"collection", msg.Collection,
		"revision", msg.Revision)

	key, ok := collectionKeys[msg.Collection]
	if !ok {
		// Unknown collection names are dropped, not requeued: a
		// redelivery would fail the same way.
		slog.WarnContext(ctx, "Ignoring change for unknown collection",
			"collection", msg.Collection)
		return nil
	}

	w.mu.Lock()
	stale := msg.Revision != 0 && msg.Revision <= w.mirrored[msg.Collection]
	w.mu.Unlock()
	if stale {
		slog.DebugContext(ctx, "Skipping already-mirrored revision",
			"collection", msg.Collection,
			"revision", msg.Revision)
		return nil
	}

	if err := w.mirrorKey(ctx, key); err != nil {
		return fmt.Errorf("mirror %s: %w", msg.Collection, err)
	}

	w.mu.Lock()
	if msg.Revision > w.mirrored[msg.Collection] {
		w.mirrored[msg.Collection] = msg.Revision
	}
	w.mu.Unlock()

	slog.InfoContext(ctx, "Collection mirrored",
		"collection", msg.Collection,
		"revision", msg.Revision)
	return nil
}

// StartupMirrorCheck copies every collection once at worker startup. This
// recovers from change messages missed while the worker was down.
func (w *MirrorWorker) StartupMirrorCheck(ctx context.Context) error {
	slog.InfoContext(ctx, "Running startup mirror check")

	errorCount := 0
	for name, key := range collectionKeys {
		if err := w.mirrorKey(ctx, key); err != nil {
			slog.ErrorContext(ctx, "Startup mirror failed for collection",
				"collection", name, "error", err)
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("startup mirror check: %d of %d collections failed", errorCount, len(collectionKeys))
	}

	slog.InfoContext(ctx, "Startup mirror check completed",
		"collections", len(collectionKeys))
	return nil
}

// mirrorKey copies one key's current primary value into the mirror. A key
// absent from the primary is left alone in the mirror.
func (w *MirrorWorker) mirrorKey(ctx context.Context, key string) error {
	value, ok, err := w.primary.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read primary: %w", err)
	}
	if !ok {
		slog.DebugContext(ctx, "Primary has no value for key, skipping", "key", key)
		return nil
	}

	if err := w.mirror.Set(ctx, key, value); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}
	return nil
}
