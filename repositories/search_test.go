package repositories

import (
	"chat-hub/domain"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	index, err := NewSearchIndex(bluge.InMemoryOnlyConfig(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func indexedMessage(sender, group, content, lang string) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		Sender:    sender,
		GroupID:   group,
		Content:   content,
		Type:      domain.TypeChat,
		Lang:      lang,
		CreatedAt: time.Now().UTC(),
	}
}

func Test_Search_Matches_Content_Terms(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	message := indexedMessage("alice", "", "the deployment finished without errors", "English")
	req.NoError(index.Index(message))
	req.NoError(index.Index(indexedMessage("bob", "", "lunch at noon?", "English")))

	hits, err := index.Search(context.Background(), SearchQuery{Terms: "deployment"})

	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(message.ID.String(), hits[0].ID)
	req.Equal("alice", hits[0].Sender)
	req.Equal("the deployment finished without errors", hits[0].Content)
}

func Test_Search_Filters_By_Group(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	req.NoError(index.Index(indexedMessage("alice", "g1", "release notes ready", "English")))
	req.NoError(index.Index(indexedMessage("alice", "g2", "release postponed", "English")))

	hits, err := index.Search(context.Background(), SearchQuery{Terms: "release", Group: "g1"})

	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("g1", hits[0].Group)
}

func Test_Search_Filters_By_Language(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	req.NoError(index.Index(indexedMessage("alice", "", "bonjour tout le monde", "French")))
	req.NoError(index.Index(indexedMessage("alice", "", "bonjour was said earlier", "English")))

	hits, err := index.Search(context.Background(), SearchQuery{Terms: "bonjour", Lang: "French"})

	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("French", hits[0].Lang)
}

func Test_Search_No_Match_Returns_Empty(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	req.NoError(index.Index(indexedMessage("alice", "", "hello world", "English")))

	hits, err := index.Search(context.Background(), SearchQuery{Terms: "quaternion"})

	req.NoError(err)
	req.Empty(hits)
}

func Test_Reindexing_Same_Message_Does_Not_Duplicate(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	message := indexedMessage("alice", "", "idempotent indexing", "English")
	req.NoError(index.Index(message))
	req.NoError(index.Index(message))

	hits, err := index.Search(context.Background(), SearchQuery{Terms: "idempotent"})

	req.NoError(err)
	req.Len(hits, 1)
}
