// Package memory is an in-process implementation of the user and poll
// storage contracts. It backs the "memory" storage driver and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
	"github.com/14kear/online_voting/polls-service/internal/lib/access"
	"github.com/14kear/online_voting/polls-service/internal/storage"
)

type Storage struct {
	mu       sync.RWMutex
	users    map[string]models.User
	emailIDs map[string]string
	polls    map[string]models.Poll
	logs     []models.PollLog
}

func New() *Storage {
	return &Storage{
		users:    make(map[string]models.User),
		emailIDs: make(map[string]string),
		polls:    make(map[string]models.Poll),
	}
}

func (s *Storage) SaveUser(_ context.Context, user models.User) error {
	const op = "storage.memory.SaveUser"

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := s.emailIDs[email]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserAlreadyExists)
	}
	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserAlreadyExists)
	}

	user.PassHash = append([]byte(nil), user.PassHash...)
	s.users[user.ID] = user
	s.emailIDs[email] = user.ID
	return nil
}

func (s *Storage) UserByEmail(_ context.Context, email string) (models.User, error) {
	const op = "storage.memory.UserByEmail"

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emailIDs[strings.ToLower(email)]
	if !ok {
		return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return s.users[id], nil
}

func (s *Storage) UserByID(_ context.Context, id string) (models.User, error) {
	const op = "storage.memory.UserByID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return user, nil
}

func (s *Storage) SearchUsersByEmailPrefix(_ context.Context, prefix string, limit int) ([]models.UserRef, error) {
	if limit <= 0 {
		limit = storage.DefaultSearchLimit
	}
	prefix = strings.ToLower(prefix)

	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]models.UserRef, 0)
	for email, id := range s.emailIDs {
		if strings.HasPrefix(email, prefix) {
			refs = append(refs, models.UserRef{ID: id, Email: s.users[id].Email})
		}
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Email < refs[j].Email })
	if len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}

func (s *Storage) SavePoll(_ context.Context, poll models.Poll) error {
	const op = "storage.memory.SavePoll"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.polls[poll.ID]; ok {
		return fmt.Errorf("%s: poll %s already exists", op, poll.ID)
	}
	s.polls[poll.ID] = poll.Clone()
	return nil
}

func (s *Storage) PollByID(_ context.Context, id string) (models.Poll, error) {
	const op = "storage.memory.PollByID"

	s.mu.RLock()
	defer s.mu.RUnlock()

	poll, ok := s.polls[id]
	if !ok {
		return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
	}
	return poll.Clone(), nil
}

func (s *Storage) Polls(_ context.Context, query models.PollQuery) ([]models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	polls := make([]models.Poll, 0, len(s.polls))
	for _, poll := range s.polls {
		if query.Viewer != nil && !access.CanAccess(*query.Viewer, poll, access.ActionRead) {
			continue
		}
		switch query.Visibility {
		case models.VisibilityPublic:
			if poll.IsPrivate {
				continue
			}
		case models.VisibilityPrivate:
			if !poll.IsPrivate {
				continue
			}
		}
		if query.VotedBy != "" && !poll.HasVoted(query.VotedBy) {
			continue
		}
		if query.NotVotedBy != "" && poll.HasVoted(query.NotVotedBy) {
			continue
		}
		polls = append(polls, poll.Clone())
	}

	sort.Slice(polls, func(i, j int) bool {
		if polls[i].CreatedAt.Equal(polls[j].CreatedAt) {
			return polls[i].ID < polls[j].ID
		}
		return polls[i].CreatedAt.After(polls[j].CreatedAt)
	})
	return polls, nil
}

func (s *Storage) UpdatePoll(_ context.Context, update models.PollUpdate, now time.Time) (models.Poll, error) {
	const op = "storage.memory.UpdatePoll"

	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[update.ID]
	if !ok {
		return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
	}
	if !poll.IsActive {
		return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrPollClosed)
	}

	poll.Question = update.Question
	poll.Options = append([]string(nil), update.Options...)
	poll.DurationMinutes = update.DurationMinutes
	poll.ExpiresAt = update.ExpiresAt
	poll.IsPrivate = update.IsPrivate
	poll.AllowedUsers = append([]string(nil), update.AllowedUsers...)
	poll.IsActive = now.Before(update.ExpiresAt)

	s.polls[update.ID] = poll
	return poll.Clone(), nil
}

func (s *Storage) DeletePoll(_ context.Context, id string) error {
	const op = "storage.memory.DeletePoll"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.polls[id]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
	}
	delete(s.polls, id)
	return nil
}

// ExpirePoll flips isActive to false when the poll's window is over at now.
// It never sets isActive back to true and is a no-op for unknown polls.
func (s *Storage) ExpirePoll(_ context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[id]
	if !ok || !poll.IsActive || !poll.ExpiredAt(now) {
		return nil
	}
	poll.IsActive = false
	s.polls[id] = poll
	return nil
}

// AppendVoteIfAbsent records userID's vote under a single write lock, so the
// activity, option and uniqueness checks and the append happen atomically.
func (s *Storage) AppendVoteIfAbsent(_ context.Context, pollID, userID, option string, at time.Time) (models.Poll, error) {
	const op = "storage.memory.AppendVoteIfAbsent"

	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[pollID]
	if !ok {
		return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
	}
	if !poll.IsActive || poll.ExpiredAt(at) {
		return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrPollClosed)
	}
	if !poll.HasOption(option) {
		return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrOptionNotFound)
	}
	if poll.HasVoted(userID) {
		return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrAlreadyVoted)
	}

	poll.Votes = append(append([]models.Vote(nil), poll.Votes...), models.Vote{UserID: userID, Option: option, VotedAt: at})
	s.polls[pollID] = poll
	return poll.Clone(), nil
}

func (s *Storage) SaveLog(_ context.Context, entry models.PollLog) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = int64(len(s.logs) + 1)
	s.logs = append(s.logs, entry)
	return entry.ID, nil
}

// Logs returns the most recent entries first.
func (s *Storage) Logs(_ context.Context, limit int) ([]models.PollLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.logs) {
		limit = len(s.logs)
	}

	logs := make([]models.PollLog, 0, limit)
	for i := len(s.logs) - 1; i >= 0 && len(logs) < limit; i-- {
		logs = append(logs, s.logs[i])
	}
	return logs, nil
}
