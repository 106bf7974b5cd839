package access

import (
	"testing"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
	"github.com/stretchr/testify/assert"
)

func TestCanAccess(t *testing.T) {
	admin := models.Identity{ID: "admin-1", Email: "admin@x.com", Role: models.RoleAdmin}
	owner := models.Identity{ID: "owner-1", Email: "owner@x.com", Role: models.RoleUser}
	member := models.Identity{ID: "member-1", Email: "c@x.com", Role: models.RoleUser}
	memberByID := models.Identity{ID: "member-2", Email: "e@x.com", Role: models.RoleUser}
	outsider := models.Identity{ID: "outsider-1", Email: "d@x.com", Role: models.RoleUser}

	public := models.Poll{ID: "p1", CreatedBy: owner.ID}
	private := models.Poll{
		ID:           "p2",
		CreatedBy:    owner.ID,
		IsPrivate:    true,
		AllowedUsers: []string{"C@X.com", "member-2"},
	}

	tests := []struct {
		name     string
		identity models.Identity
		poll     models.Poll
		action   Action
		want     bool
	}{
		{"admin reads private", admin, private, ActionRead, true},
		{"admin updates", admin, private, ActionUpdate, true},
		{"admin deletes", admin, public, ActionDelete, true},
		{"admin cannot vote", admin, public, ActionVote, false},

		{"user reads public", outsider, public, ActionRead, true},
		{"user votes public", outsider, public, ActionVote, true},
		{"outsider cannot read private", outsider, private, ActionRead, false},
		{"outsider cannot vote private", outsider, private, ActionVote, false},
		{"member by email reads private", member, private, ActionRead, true},
		{"member by id votes private", memberByID, private, ActionVote, true},
		{"owner reads own private", owner, private, ActionRead, true},

		{"owner updates", owner, public, ActionUpdate, true},
		{"owner deletes", owner, private, ActionDelete, true},
		{"member cannot update", member, private, ActionUpdate, false},
		{"user cannot delete public", outsider, public, ActionDelete, false},

		{"unknown action", owner, public, Action("close"), false},
		{"anonymous identity owns nothing", models.Identity{}, models.Poll{IsPrivate: true}, ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccess(tt.identity, tt.poll, tt.action))
		})
	}
}
