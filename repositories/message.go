//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	stderrors "errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100

	// Largest 19-digit value, used as a seek anchor past every
	// zero-padded timestamp of a prefix.
	maxPaddedStamp = "9999999999999999999"
)

type IMessageRepository interface {
	Append(message domain.Message) (domain.Message, error)
	PrivateHistory(identityA, identityB string, limit int) ([]domain.Message, error)
	GroupHistory(groupID string, limit int) ([]domain.Message, error)
}

// MessageRepository is the durable message log. It is the single
// writer of message rows and the sole assigner of message IDs and
// timestamps.
type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitOverride *int

	// stampMu guards the monotonic timestamp so rows written within the
	// same nanosecond still sort in append order.
	stampMu   sync.Mutex
	lastStamp time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitOverride *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitOverride: limitOverride}
}

// Append assigns the server-side identifier and timestamp, then
// persists the message. The returned copy is the one to fan out:
// durability strictly precedes delivery.
//
// Keys are formatted as "pm:{low}:{high}:{timestamp_padded}:{uuid}" for
// private messages (identities sorted so both directions share one
// prefix) and "gm:{group}:{timestamp_padded}:{uuid}" for group
// messages. The 19-digit zero padding keeps lexicographic order equal
// to chronological order; the UUID disambiguates same-nanosecond rows.
func (m *MessageRepository) Append(message domain.Message) (domain.Message, error) {
	message.ID = uuid.New()
	message.CreatedAt = m.stamp()

	var key string
	switch {
	case message.IsPrivate():
		low, high := sortPair(message.Sender, message.Receiver)
		key = fmt.Sprintf("pm:%s:%s:%019d:%s", low, high, message.CreatedAt.UnixNano(), message.ID)
	case message.IsGroup():
		key = fmt.Sprintf("gm:%s:%019d:%s", message.GroupID, message.CreatedAt.UnixNano(), message.ID)
	default:
		return domain.Message{}, fmt.Errorf("message has neither receiver nor group")
	}

	bytes, err := json.Marshal(message)
	if err != nil {
		return domain.Message{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// PrivateHistory returns the latest rows exchanged between exactly the
// two identities, oldest first. Group rows never match the prefix.
func (m *MessageRepository) PrivateHistory(identityA, identityB string, limit int) ([]domain.Message, error) {
	low, high := sortPair(identityA, identityB)
	prefix := fmt.Sprintf("pm:%s:%s:", low, high)
	return m.scanLatest(prefix, limit)
}

// GroupHistory returns the latest rows of a group topic, oldest first.
func (m *MessageRepository) GroupHistory(groupID string, limit int) ([]domain.Message, error) {
	prefix := fmt.Sprintf("gm:%s:", groupID)
	return m.scanLatest(prefix, limit)
}

// scanLatest iterates the prefix in reverse (newest first) up to the
// clamped limit, then flips the slice to chronological order.
func (m *MessageRepository) scanLatest(prefixStr string, limit int) ([]domain.Message, error) {
	limit = m.clampLimit(limit)

	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append([]byte(prefixStr), []byte(maxPaddedStamp)...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(raw) == limit {
				m.log.Debug(fmt.Sprintf("History limit of %d reached for %q", limit, prefixStr))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				buf := make([]byte, len(value))
				copy(buf, value)
				raw = append(raw, buf)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var message domain.Message
		if err := json.Unmarshal(raw[i], &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// clampLimit applies the default of 50, the hard cap of 100 and the
// optional configured override.
func (m *MessageRepository) clampLimit(limit int) int {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	max := maxHistoryLimit
	if m.limitOverride != nil && *m.limitOverride < max {
		max = *m.limitOverride
	}
	if limit > max {
		limit = max
	}
	return limit
}

// stamp returns a server timestamp that is strictly non-decreasing per
// store instance, the only ordering guarantee the routing core offers
// across concurrent sends.
func (m *MessageRepository) stamp() time.Time {
	m.stampMu.Lock()
	defer m.stampMu.Unlock()
	now := time.Now().UTC()
	if !now.After(m.lastStamp) {
		now = m.lastStamp.Add(time.Nanosecond)
	}
	m.lastStamp = now
	return now
}

func sortPair(a, b string) (string, string) {
	if strings.Compare(a, b) <= 0 {
		return a, b
	}
	return b, a
}

// IsNotFound reports whether a storage error means "no such row".
func IsNotFound(err error) bool {
	return stderrors.Is(err, badger.ErrKeyNotFound)
}
