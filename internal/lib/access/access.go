package access

import (
	"strings"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionVote   Action = "vote"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// CanAccess decides whether identity may perform action on poll.
//
// Admins may read, update and delete any poll but never vote. Other users may
// read and vote on public polls, on private polls that list them, and on polls
// they created; only the creator may update or delete.
func CanAccess(identity models.Identity, poll models.Poll, action Action) bool {
	if identity.IsAdmin() {
		switch action {
		case ActionRead, ActionUpdate, ActionDelete:
			return true
		default:
			return false
		}
	}

	switch action {
	case ActionRead, ActionVote:
		return !poll.IsPrivate || IsOwner(identity, poll) || IsAllowed(identity, poll)
	case ActionUpdate, ActionDelete:
		return IsOwner(identity, poll)
	default:
		return false
	}
}

func IsOwner(identity models.Identity, poll models.Poll) bool {
	return identity.ID != "" && poll.CreatedBy == identity.ID
}

// IsAllowed reports whether the poll's allow-list names identity by id or email.
func IsAllowed(identity models.Identity, poll models.Poll) bool {
	for _, u := range poll.AllowedUsers {
		if identity.ID != "" && u == identity.ID {
			return true
		}
		if identity.Email != "" && strings.EqualFold(u, identity.Email) {
			return true
		}
	}
	return false
}
