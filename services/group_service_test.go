package services

import (
	"chat-hub/errors"
	"chat-hub/repositories"
	"testing"

	"github.com/stretchr/testify/require"
)

func newGroupService(t *testing.T, usernames ...string) *GroupService {
	t.Helper()
	db := openTestDB(t)
	users := repositories.NewUserRepository(db)
	for _, username := range usernames {
		_, err := users.Create(username, "hash")
		require.NoError(t, err)
	}
	return NewGroupService(repositories.NewGroupRepository(db), users)
}

func TestGroupService_Create_And_Get(t *testing.T) {
	req := require.New(t)
	service := newGroupService(t, "alice")

	group, err := service.Create("gophers", "alice")
	req.NoError(err)
	req.True(group.IsMember("alice"))

	fetched, err := service.Get(group.ID)
	req.NoError(err)
	req.Equal(group.ID, fetched.ID)
}

func TestGroupService_Create_Empty_Name(t *testing.T) {
	req := require.New(t)
	service := newGroupService(t, "alice")

	_, err := service.Create("", "alice")
	req.ErrorIs(err, errors.ErrInvalidGroup)
}

func TestGroupService_Only_Creator_Manages_Membership(t *testing.T) {
	req := require.New(t)
	service := newGroupService(t, "alice", "bob", "carol")
	group, err := service.Create("gophers", "alice")
	req.NoError(err)

	// When someone else tries to add a member
	err = service.AddMember(group.ID, "bob", "carol")
	req.ErrorIs(err, errors.ErrForbidden)

	// Then the creator can
	req.NoError(service.AddMember(group.ID, "alice", "bob"))

	// And only the creator can remove
	err = service.RemoveMember(group.ID, "bob", "bob")
	req.ErrorIs(err, errors.ErrForbidden)
	req.NoError(service.RemoveMember(group.ID, "alice", "bob"))
}

func TestGroupService_AddMember_Requires_Existing_User(t *testing.T) {
	req := require.New(t)
	service := newGroupService(t, "alice")
	group, err := service.Create("gophers", "alice")
	req.NoError(err)

	err = service.AddMember(group.ID, "alice", "ghost")
	req.ErrorIs(err, errors.ErrUnknownRecipient)
}

func TestGroupService_Unknown_Group(t *testing.T) {
	req := require.New(t)
	service := newGroupService(t, "alice")

	_, err := service.Get("missing")
	req.ErrorIs(err, errors.ErrInvalidGroup)

	err = service.AddMember("missing", "alice", "alice")
	req.ErrorIs(err, errors.ErrInvalidGroup)
}
