package models

import "time"

type PollAction string

const (
	ActionPollCreated PollAction = "poll.created"
	ActionPollUpdated PollAction = "poll.updated"
	ActionPollDeleted PollAction = "poll.deleted"
	ActionPollVoted   PollAction = "poll.voted"
)

type PollLog struct {
	ID        int64      `json:"id"`
	UserID    string     `json:"userId"`
	PollID    string     `json:"pollId"`
	Action    PollAction `json:"action"`
	Option    *string    `json:"option,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
