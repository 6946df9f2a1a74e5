//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/mock_group_repository.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IGroupRepository interface {
	Create(name, creator string) (domain.Group, error)
	Get(groupID string) (domain.Group, error)
	Members(groupID string) ([]string, error)
	IsMember(groupID, identity string) (bool, error)
	AddMember(groupID, identity string) error
	RemoveMember(groupID, identity string) error
}

// GroupRepository is the durable group directory. Membership edits
// commit synchronously, so a group send issued after AddMember returns
// always fans out to the new member (read-your-writes).
type GroupRepository struct {
	db *badger.DB
}

func NewGroupRepository(db *badger.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func groupKey(id string) []byte {
	return []byte("group:" + id)
}

// groupNameKey indexes group names for the uniqueness check.
func groupNameKey(name string) []byte {
	return []byte("groupname:" + name)
}

func (g *GroupRepository) Create(name, creator string) (domain.Group, error) {
	group := domain.NewGroup(uuid.NewString(), name, creator, time.Now().UTC())

	data, err := json.Marshal(group)
	if err != nil {
		return domain.Group{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = g.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(groupNameKey(name)); err == nil {
			return errors.ErrGroupNameTaken
		}
		if err := txn.Set(groupNameKey(name), []byte(group.ID)); err != nil {
			return err
		}
		return txn.Set(groupKey(group.ID), data)
	})
	if err != nil {
		return domain.Group{}, err
	}
	return group, nil
}

func (g *GroupRepository) Get(groupID string) (domain.Group, error) {
	var group domain.Group
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(groupKey(groupID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &group)
		})
	})
	if IsNotFound(err) {
		return domain.Group{}, errors.ErrInvalidGroup
	}
	if err != nil {
		return domain.Group{}, err
	}
	return group, nil
}

// Members returns a snapshot of the member set at call time.
func (g *GroupRepository) Members(groupID string) ([]string, error) {
	group, err := g.Get(groupID)
	if err != nil {
		return nil, err
	}
	return group.Members, nil
}

func (g *GroupRepository) IsMember(groupID, identity string) (bool, error) {
	group, err := g.Get(groupID)
	if err != nil {
		return false, err
	}
	return group.IsMember(identity), nil
}

func (g *GroupRepository) AddMember(groupID, identity string) error {
	return g.mutate(groupID, func(group *domain.Group) error {
		group.AddMember(identity)
		return nil
	})
}

// RemoveMember rejects removal of the creator, which keeps the member
// set non-empty for the lifetime of the group.
func (g *GroupRepository) RemoveMember(groupID, identity string) error {
	return g.mutate(groupID, func(group *domain.Group) error {
		if !group.RemoveMember(identity) {
			return errors.ErrForbidden
		}
		return nil
	})
}

// mutate performs a read-modify-write of one group record inside a
// single transaction, serializing concurrent edits of the same group
// without locking out edits of unrelated groups.
func (g *GroupRepository) mutate(groupID string, fn func(*domain.Group) error) error {
	err := g.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(groupKey(groupID))
		if err != nil {
			return err
		}
		var group domain.Group
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &group)
		}); err != nil {
			return err
		}
		if err := fn(&group); err != nil {
			return err
		}
		data, err := json.Marshal(group)
		if err != nil {
			return err
		}
		return txn.Set(groupKey(groupID), data)
	})
	if IsNotFound(err) {
		return errors.ErrInvalidGroup
	}
	return err
}
