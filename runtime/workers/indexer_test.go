package workers

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/repositories"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingIndex struct {
	mu      sync.Mutex
	indexed []domain.Message
}

func (r *recordingIndex) Index(message domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, message)
	return nil
}

func (r *recordingIndex) Search(ctx context.Context, query repositories.SearchQuery) ([]repositories.SearchHit, error) {
	return nil, nil
}

func (r *recordingIndex) Close() error { return nil }

func (r *recordingIndex) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.indexed)
}

func TestIndexer_Indexes_Persisted_Messages_Only(t *testing.T) {
	req := require.New(t)
	index := &recordingIndex{}
	events := make(chan event.DomainEvent, 8)
	worker := NewIndexerWorker(slog.Default(), events, index)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	// When persisted and presence events flow through the pipeline
	message := domain.Message{ID: uuid.New(), Sender: "alice", Receiver: "bob", Content: "index me"}
	events <- event.MessagePersisted{Message: message}
	events <- event.PresenceChanged{Message: domain.Message{Sender: "bob", Type: domain.TypeJoin}}

	req.Eventually(func() bool { return index.count() == 1 },
		time.Second, 10*time.Millisecond)

	// Then only the persisted message landed in the index
	cancel()
	<-done
	req.Equal(message.ID, index.indexed[0].ID)
}
