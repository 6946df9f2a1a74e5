package workers

import (
	"chat-hub/domain/event"
	"chat-hub/repositories"
	"context"
	"log/slog"
)

// IndexerWorker drains the event channel and feeds persisted messages
// into the search index. Indexing is best-effort: a failed document is
// logged and skipped, the badger log remains the source of truth.
type IndexerWorker struct {
	log    *slog.Logger
	events <-chan event.DomainEvent
	index  repositories.ISearchIndex
}

func NewIndexerWorker(log *slog.Logger, events <-chan event.DomainEvent, index repositories.ISearchIndex) *IndexerWorker {
	return &IndexerWorker{log: log, events: events, index: index}
}

func (w *IndexerWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping indexer")
			return nil
		case evt := <-w.events:
			persisted, ok := evt.(event.MessagePersisted)
			if !ok {
				continue
			}
			if err := w.index.Index(persisted.Message); err != nil {
				w.log.Error("Failed to index message",
					"message_id", persisted.Message.ID,
					"error", err)
			}
		}
	}
}
