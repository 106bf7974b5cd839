package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
	"github.com/14kear/online_voting/polls-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func newPoll(id string) models.Poll {
	return models.Poll{
		ID:              id,
		Question:        "Lunch?",
		Options:         []string{"Pizza", "Sushi"},
		CreatedBy:       "admin-1",
		CreatedAt:       t0,
		DurationMinutes: 1,
		ExpiresAt:       t0.Add(time.Minute),
		IsActive:        true,
	}
}

func TestStorage_SaveUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.SaveUser(ctx, models.User{ID: "u1", Email: "alice@x.com", Role: models.RoleUser}))

	err := s.SaveUser(ctx, models.User{ID: "u2", Email: "ALICE@x.com", Role: models.RoleUser})
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)

	user, err := s.UserByEmail(ctx, "Alice@X.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = s.UserByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestStorage_SearchUsersByEmailPrefix(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i, email := range []string{"bob@x.com", "alice@x.com", "alina@y.com", "carol@x.com"} {
		require.NoError(t, s.SaveUser(ctx, models.User{ID: fmt.Sprintf("u%d", i), Email: email}))
	}

	refs, err := s.SearchUsersByEmailPrefix(ctx, "AL", 0)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "alice@x.com", refs[0].Email)
	assert.Equal(t, "alina@y.com", refs[1].Email)

	refs, err = s.SearchUsersByEmailPrefix(ctx, "a", 1)
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	refs, err = s.SearchUsersByEmailPrefix(ctx, "zed", 0)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestStorage_PollIsCopiedOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := New()

	poll := newPoll("p1")
	require.NoError(t, s.SavePoll(ctx, poll))
	poll.Options[0] = "Changed"

	got, err := s.PollByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Pizza", got.Options[0])

	got.Options[1] = "Changed"
	again, err := s.PollByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Sushi", again.Options[1])
}

func TestStorage_AppendVoteIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.SavePoll(ctx, newPoll("p1")))

	poll, err := s.AppendVoteIfAbsent(ctx, "p1", "u1", "Pizza", t0.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, poll.Votes, 1)

	_, err = s.AppendVoteIfAbsent(ctx, "p1", "u1", "Sushi", t0.Add(2*time.Second))
	assert.ErrorIs(t, err, storage.ErrAlreadyVoted)

	_, err = s.AppendVoteIfAbsent(ctx, "p1", "u2", "Tacos", t0.Add(2*time.Second))
	assert.ErrorIs(t, err, storage.ErrOptionNotFound)

	_, err = s.AppendVoteIfAbsent(ctx, "p1", "u2", "Sushi", t0.Add(time.Minute))
	assert.ErrorIs(t, err, storage.ErrPollClosed)

	_, err = s.AppendVoteIfAbsent(ctx, "missing", "u2", "Sushi", t0)
	assert.ErrorIs(t, err, storage.ErrPollNotFound)
}

func TestStorage_AppendVoteIfAbsentConcurrent(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.SavePoll(ctx, newPoll("p1")))

	const attempts = 64
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		duplicate atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			option := "Pizza"
			if i%2 == 1 {
				option = "Sushi"
			}
			_, err := s.AppendVoteIfAbsent(ctx, "p1", "u1", option, t0.Add(time.Second))
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, storage.ErrAlreadyVoted):
				duplicate.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(attempts-1), duplicate.Load())

	poll, err := s.PollByID(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, poll.Votes, 1)
}

func TestStorage_ExpirePollIsMonotone(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.SavePoll(ctx, newPoll("p1")))

	require.NoError(t, s.ExpirePoll(ctx, "p1", t0.Add(30*time.Second)))
	poll, err := s.PollByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, poll.IsActive, "not yet expired")

	require.NoError(t, s.ExpirePoll(ctx, "p1", t0.Add(time.Minute)))
	require.NoError(t, s.ExpirePoll(ctx, "p1", t0.Add(time.Minute)))
	poll, err = s.PollByID(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, poll.IsActive)

	_, err = s.UpdatePoll(ctx, models.PollUpdate{
		ID:              "p1",
		Question:        "Dinner?",
		Options:         []string{"A", "B"},
		DurationMinutes: 120,
		ExpiresAt:       t0.Add(120 * time.Minute),
	}, t0.Add(time.Minute))
	assert.ErrorIs(t, err, storage.ErrPollClosed)

	poll, err = s.PollByID(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, poll.IsActive)

	assert.NoError(t, s.ExpirePoll(ctx, "missing", t0))
}

func TestStorage_PollsQuery(t *testing.T) {
	ctx := context.Background()
	s := New()

	public := newPoll("public")
	private := newPoll("private")
	private.IsPrivate = true
	private.AllowedUsers = []string{"c@x.com"}
	private.CreatedAt = t0.Add(time.Second)
	private.ExpiresAt = private.CreatedAt.Add(time.Minute)

	require.NoError(t, s.SavePoll(ctx, public))
	require.NoError(t, s.SavePoll(ctx, private))
	_, err := s.AppendVoteIfAbsent(ctx, "public", "u-c", "Pizza", t0)
	require.NoError(t, err)

	outsider := models.Identity{ID: "u-d", Email: "d@x.com", Role: models.RoleUser}
	member := models.Identity{ID: "u-c", Email: "c@x.com", Role: models.RoleUser}

	polls, err := s.Polls(ctx, models.PollQuery{Viewer: &outsider})
	require.NoError(t, err)
	require.Len(t, polls, 1)
	assert.Equal(t, "public", polls[0].ID)

	polls, err = s.Polls(ctx, models.PollQuery{Viewer: &member})
	require.NoError(t, err)
	require.Len(t, polls, 2)
	assert.Equal(t, "private", polls[0].ID, "newest first")

	polls, err = s.Polls(ctx, models.PollQuery{Viewer: &member, VotedBy: member.ID})
	require.NoError(t, err)
	require.Len(t, polls, 1)
	assert.Equal(t, "public", polls[0].ID)

	polls, err = s.Polls(ctx, models.PollQuery{Viewer: &member, NotVotedBy: member.ID})
	require.NoError(t, err)
	require.Len(t, polls, 1)
	assert.Equal(t, "private", polls[0].ID)

	polls, err = s.Polls(ctx, models.PollQuery{Visibility: models.VisibilityPrivate})
	require.NoError(t, err)
	require.Len(t, polls, 1)
	assert.Equal(t, "private", polls[0].ID)
}

func TestStorage_Logs(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, action := range []models.PollAction{models.ActionPollCreated, models.ActionPollVoted, models.ActionPollDeleted} {
		_, err := s.SaveLog(ctx, models.PollLog{PollID: "p1", UserID: "u1", Action: action, CreatedAt: t0})
		require.NoError(t, err)
	}

	logs, err := s.Logs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionPollDeleted, logs[0].Action)
	assert.Equal(t, models.ActionPollVoted, logs[1].Action)
}
