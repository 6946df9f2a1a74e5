//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_index.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"context"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
)

type ISearchIndex interface {
	Index(message domain.Message) error
	Search(ctx context.Context, query SearchQuery) ([]SearchHit, error)
	Close() error
}

// SearchQuery carries the parsed parameters of a message search.
// Terms match the content field; Group and Lang are exact filters.
type SearchQuery struct {
	Terms string
	Group string
	Lang  string
	Limit int
}

type SearchHit struct {
	ID      string    `json:"id"`
	Sender  string    `json:"sender"`
	Group   string    `json:"group,omitempty"`
	Lang    string    `json:"lang,omitempty"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// SearchIndex is the bluge-backed full-text index over persisted
// messages. It is fed asynchronously by the indexer worker; the badger
// log stays the source of truth and the index is best-effort.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(config bluge.Config, log *slog.Logger) (*SearchIndex, error) {
	writer, err := bluge.OpenWriter(config)
	if err != nil {
		return nil, err
	}
	return &SearchIndex{writer: writer, log: log}, nil
}

func (s *SearchIndex) Index(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField("content", message.Content).StoreValue()).
		AddField(bluge.NewKeywordField("sender", message.Sender).StoreValue()).
		AddField(bluge.NewKeywordField("group", message.GroupID).StoreValue()).
		AddField(bluge.NewKeywordField("lang", message.Lang).StoreValue()).
		AddField(bluge.NewKeywordField("at", message.CreatedAt.Format(time.RFC3339Nano)).StoreValue())
	return s.writer.Update(doc.ID(), doc)
}

func (s *SearchIndex) Search(ctx context.Context, query SearchQuery) ([]SearchHit, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("Failed to close index reader", "error", err)
		}
	}()

	boolean := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query.Terms).SetField("content"))
	if query.Group != "" {
		boolean.AddMust(bluge.NewTermQuery(query.Group).SetField("group"))
	}
	if query.Lang != "" {
		boolean.AddMust(bluge.NewTermQuery(query.Lang).SetField("lang"))
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, boolean))
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		var hit SearchHit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.ID = string(value)
			case "sender":
				hit.Sender = string(value)
			case "group":
				hit.Group = string(value)
			case "lang":
				hit.Lang = string(value)
			case "content":
				hit.Content = string(value)
			case "at":
				if at, err := time.Parse(time.RFC3339Nano, string(value)); err == nil {
					hit.At = at
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *SearchIndex) Close() error {
	return s.writer.Close()
}
