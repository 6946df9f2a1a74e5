package domain

import (
	"time"

	"github.com/samber/lo"
)

// Group is a named durable entity with a creator and a member set.
// The creator is always a member and the member set is never empty
// while the group exists.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Creator   string    `json:"creator"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

func NewGroup(id, name, creator string, at time.Time) Group {
	return Group{
		ID:        id,
		Name:      name,
		Creator:   creator,
		Members:   []string{creator},
		CreatedAt: at,
	}
}

func (g Group) IsMember(identity string) bool {
	return lo.Contains(g.Members, identity)
}

// AddMember is a no-op for identities that already belong to the group.
func (g *Group) AddMember(identity string) {
	if g.IsMember(identity) {
		return
	}
	g.Members = append(g.Members, identity)
}

// RemoveMember reports whether the identity was removed. The creator
// cannot leave its own group, which keeps the member set non-empty.
func (g *Group) RemoveMember(identity string) bool {
	if identity == g.Creator || !g.IsMember(identity) {
		return false
	}
	g.Members = lo.Without(g.Members, identity)
	return true
}
