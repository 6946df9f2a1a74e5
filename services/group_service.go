package services

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"
	"fmt"
)

type IGroupService interface {
	Create(name, creator string) (domain.Group, error)
	Get(groupID string) (domain.Group, error)
	AddMember(groupID, caller, username string) error
	RemoveMember(groupID, caller, username string) error
}

// GroupService enforces the management rules of the original system:
// only the creator mutates membership, and the creator itself can
// never be removed.
type GroupService struct {
	groups repositories.IGroupRepository
	users  repositories.IUserRepository
}

func NewGroupService(groups repositories.IGroupRepository, users repositories.IUserRepository) *GroupService {
	return &GroupService{groups: groups, users: users}
}

func (s *GroupService) Create(name, creator string) (domain.Group, error) {
	if name == "" {
		return domain.Group{}, fmt.Errorf("%w: empty group name", errors.ErrInvalidGroup)
	}
	return s.groups.Create(name, creator)
}

func (s *GroupService) Get(groupID string) (domain.Group, error) {
	return s.groups.Get(groupID)
}

func (s *GroupService) AddMember(groupID, caller, username string) error {
	if err := s.authorize(groupID, caller); err != nil {
		return err
	}
	ok, err := s.users.Exists(username)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrUnknownRecipient, username)
	}
	return s.groups.AddMember(groupID, username)
}

func (s *GroupService) RemoveMember(groupID, caller, username string) error {
	if err := s.authorize(groupID, caller); err != nil {
		return err
	}
	return s.groups.RemoveMember(groupID, username)
}

func (s *GroupService) authorize(groupID, caller string) error {
	group, err := s.groups.Get(groupID)
	if err != nil {
		return err
	}
	if group.Creator != caller {
		return fmt.Errorf("%w: only the creator manages %q", errors.ErrForbidden, groupID)
	}
	return nil
}
