package polls

//go:generate mockgen -source=polls.go -destination=../mocks/polls.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
	"github.com/14kear/online_voting/polls-service/internal/lib/access"
	"github.com/14kear/online_voting/polls-service/internal/storage"
	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"
	"github.com/google/uuid"
)

var (
	ErrPollNotFound  = errors.New("poll not found")
	ErrForbidden     = errors.New("forbidden")
	ErrPollExpired   = errors.New("poll expired")
	ErrInvalidOption = errors.New("invalid option")
	ErrAlreadyVoted  = errors.New("already voted")
)

type PollStorage interface {
	SavePoll(ctx context.Context, poll models.Poll) error
	PollByID(ctx context.Context, id string) (models.Poll, error)
	Polls(ctx context.Context, query models.PollQuery) ([]models.Poll, error)
	UpdatePoll(ctx context.Context, update models.PollUpdate, now time.Time) (models.Poll, error)
	DeletePoll(ctx context.Context, id string) error
	ExpirePoll(ctx context.Context, id string, now time.Time) error
	AppendVoteIfAbsent(ctx context.Context, pollID, userID, option string, at time.Time) (models.Poll, error)
}

type LogStorage interface {
	SaveLog(ctx context.Context, entry models.PollLog) (int64, error)
	Logs(ctx context.Context, limit int) ([]models.PollLog, error)
}

// Service owns the poll lifecycle: creation, reads with lazy expiry,
// updates, removal and voting. It keeps no state of its own; every guarantee
// that must hold across concurrent requests is delegated to PollStorage.
type Service struct {
	log         *slog.Logger
	pollStorage PollStorage
	logStorage  LogStorage
	now         func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(log *slog.Logger, pollStorage PollStorage, logStorage LogStorage, opts ...Option) *Service {
	s := &Service{
		log:         log,
		pollStorage: pollStorage,
		logStorage:  logStorage,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreatePollInput struct {
	Question        string
	Options         []string
	DurationMinutes int
	IsPrivate       bool
	AllowedUsers    []string
}

// Create stores a new active poll. Only admins may create polls.
func (s *Service) Create(ctx context.Context, creator models.Identity, in CreatePollInput) (models.Poll, error) {
	const op = "polls.Create"

	log := s.log.With(slog.String("op", op), slog.String("user_id", creator.ID))

	if !creator.IsAdmin() {
		log.Warn("non-admin tried to create a poll")
		return models.Poll{}, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	now := s.now().UTC()
	poll := models.Poll{
		ID:              uuid.NewString(),
		Question:        strings.TrimSpace(in.Question),
		Options:         trimAll(in.Options),
		CreatedBy:       creator.ID,
		CreatedAt:       now,
		DurationMinutes: in.DurationMinutes,
		ExpiresAt:       expiresAt(now, in.DurationMinutes),
		IsActive:        true,
		IsPrivate:       in.IsPrivate,
		AllowedUsers:    normalizeAllowedUsers(in.AllowedUsers),
		Votes:           []models.Vote{},
	}

	if err := poll.Validate(); err != nil {
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.pollStorage.SavePoll(ctx, poll); err != nil {
		log.Error("failed to save poll", sl.Err(err))
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	s.saveLog(ctx, creator, poll.ID, models.ActionPollCreated, nil)
	log.Info("poll created", slog.String("poll_id", poll.ID))

	return poll, nil
}

// Poll returns a single poll. A poll the caller may not see is reported as
// missing.
func (s *Service) Poll(ctx context.Context, identity models.Identity, id string) (models.Poll, error) {
	const op = "polls.Poll"

	poll, err := s.visiblePoll(ctx, identity, id)
	if err != nil {
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	poll, err = s.reconcile(ctx, poll)
	if err != nil {
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	return poll, nil
}

// Polls lists the polls visible to identity, newest first. The status filter
// is applied to the reconciled state.
func (s *Service) Polls(ctx context.Context, identity models.Identity, filter models.PollFilter) ([]models.Poll, error) {
	const op = "polls.Polls"

	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := models.PollQuery{
		Viewer:     &identity,
		Visibility: filter.Visibility,
	}
	if filter.Voted != nil {
		if *filter.Voted {
			query.VotedBy = identity.ID
		} else {
			query.NotVotedBy = identity.ID
		}
	}

	found, err := s.pollStorage.Polls(ctx, query)
	if err != nil {
		s.log.Error("failed to list polls", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	polls := make([]models.Poll, 0, len(found))
	for _, poll := range found {
		poll, err := s.reconcile(ctx, poll)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		switch filter.Status {
		case models.PollStatusActive:
			if !poll.IsActive {
				continue
			}
		case models.PollStatusExpired:
			if poll.IsActive {
				continue
			}
		}
		polls = append(polls, poll)
	}

	return polls, nil
}

// Update applies patch to an active poll owned by identity (or any poll for
// an admin). Changing the duration moves expiresAt relative to createdAt,
// which may close the poll immediately.
func (s *Service) Update(ctx context.Context, identity models.Identity, id string, patch models.PollPatch) (models.Poll, error) {
	const op = "polls.Update"

	log := s.log.With(slog.String("op", op), slog.String("poll_id", id), slog.String("user_id", identity.ID))

	poll, err := s.visiblePoll(ctx, identity, id)
	if err != nil {
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	if !access.CanAccess(identity, poll, access.ActionUpdate) {
		log.Warn("update denied")
		return models.Poll{}, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	poll, err = s.reconcile(ctx, poll)
	if err != nil {
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}
	if !poll.IsActive {
		return models.Poll{}, fmt.Errorf("%s: %w", op, ErrPollExpired)
	}

	merged := applyPatch(poll, patch)
	if err := merged.Validate(); err != nil {
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.pollStorage.UpdatePoll(ctx, models.PollUpdate{
		ID:              merged.ID,
		Question:        merged.Question,
		Options:         merged.Options,
		DurationMinutes: merged.DurationMinutes,
		ExpiresAt:       merged.ExpiresAt,
		IsPrivate:       merged.IsPrivate,
		AllowedUsers:    merged.AllowedUsers,
	}, s.now().UTC())
	if err != nil {
		if mapped := mapStorageErr(err); mapped != nil {
			return models.Poll{}, fmt.Errorf("%s: %w", op, mapped)
		}
		log.Error("failed to update poll", sl.Err(err))
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	s.saveLog(ctx, identity, id, models.ActionPollUpdated, nil)
	log.Info("poll updated")

	return updated, nil
}

// Remove deletes a poll regardless of its state.
func (s *Service) Remove(ctx context.Context, identity models.Identity, id string) error {
	const op = "polls.Remove"

	log := s.log.With(slog.String("op", op), slog.String("poll_id", id), slog.String("user_id", identity.ID))

	poll, err := s.visiblePoll(ctx, identity, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !access.CanAccess(identity, poll, access.ActionDelete) {
		log.Warn("delete denied")
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if err := s.pollStorage.DeletePoll(ctx, id); err != nil {
		if errors.Is(err, storage.ErrPollNotFound) {
			return fmt.Errorf("%s: %w", op, ErrPollNotFound)
		}
		log.Error("failed to delete poll", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.saveLog(ctx, identity, id, models.ActionPollDeleted, nil)
	log.Info("poll deleted")

	return nil
}

// Vote records identity's choice. The checks run in a fixed order, each with
// its own error: ErrPollNotFound, ErrForbidden (admins), ErrPollExpired,
// ErrInvalidOption, ErrAlreadyVoted. The final append is a single conditional
// write in storage, so concurrent votes by the same user leave one entry.
func (s *Service) Vote(ctx context.Context, identity models.Identity, id, option string) (models.Poll, error) {
	const op = "polls.Vote"

	log := s.log.With(slog.String("op", op), slog.String("poll_id", id), slog.String("user_id", identity.ID))

	poll, err := s.visiblePoll(ctx, identity, id)
	if err != nil {
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	if !access.CanAccess(identity, poll, access.ActionVote) {
		log.Warn("vote denied")
		return models.Poll{}, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	poll, err = s.reconcile(ctx, poll)
	if err != nil {
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case !poll.IsActive:
		return models.Poll{}, fmt.Errorf("%s: %w", op, ErrPollExpired)
	case !poll.HasOption(option):
		return models.Poll{}, fmt.Errorf("%s: %w", op, ErrInvalidOption)
	case poll.HasVoted(identity.ID):
		return models.Poll{}, fmt.Errorf("%s: %w", op, ErrAlreadyVoted)
	}

	voted, err := s.pollStorage.AppendVoteIfAbsent(ctx, id, identity.ID, option, s.now().UTC())
	if err != nil {
		if mapped := mapStorageErr(err); mapped != nil {
			log.Info("vote rejected by storage", sl.Err(err))
			return models.Poll{}, fmt.Errorf("%s: %w", op, mapped)
		}
		log.Error("failed to save vote", sl.Err(err))
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	s.saveLog(ctx, identity, id, models.ActionPollVoted, &option)
	log.Info("vote accepted")

	return voted, nil
}

// Logs returns the most recent audit entries. Admin only.
func (s *Service) Logs(ctx context.Context, identity models.Identity, limit int) ([]models.PollLog, error) {
	const op = "polls.Logs"

	if !identity.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	logs, err := s.logStorage.Logs(ctx, limit)
	if err != nil {
		s.log.Error("failed to get logs", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return logs, nil
}

// visiblePoll loads a poll and hides it behind ErrPollNotFound when identity
// may not read it.
func (s *Service) visiblePoll(ctx context.Context, identity models.Identity, id string) (models.Poll, error) {
	poll, err := s.pollStorage.PollByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrPollNotFound) {
			return models.Poll{}, ErrPollNotFound
		}
		return models.Poll{}, err
	}

	if !access.CanAccess(identity, poll, access.ActionRead) {
		return models.Poll{}, ErrPollNotFound
	}

	return poll, nil
}

// reconcile persists the active to expired transition when the poll's window
// is over. Applying it to an expired poll is a no-op, and it never reactivates.
func (s *Service) reconcile(ctx context.Context, poll models.Poll) (models.Poll, error) {
	now := s.now().UTC()
	if !poll.IsActive || !poll.ExpiredAt(now) {
		return poll, nil
	}

	if err := s.pollStorage.ExpirePoll(ctx, poll.ID, now); err != nil {
		s.log.Error("failed to expire poll", slog.String("poll_id", poll.ID), sl.Err(err))
		return models.Poll{}, fmt.Errorf("reconcile: %w", err)
	}

	poll.IsActive = false
	return poll, nil
}

// saveLog records an audit entry. A failure is logged and not returned, the
// action itself already happened.
func (s *Service) saveLog(ctx context.Context, identity models.Identity, pollID string, action models.PollAction, option *string) {
	entry := models.PollLog{
		UserID:    identity.ID,
		PollID:    pollID,
		Action:    action,
		Option:    option,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.logStorage.SaveLog(ctx, entry); err != nil {
		s.log.Warn("failed to save audit log",
			slog.String("poll_id", pollID),
			slog.String("action", string(action)),
			sl.Err(err),
		)
	}
}

func mapStorageErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrPollNotFound):
		return ErrPollNotFound
	case errors.Is(err, storage.ErrPollClosed):
		return ErrPollExpired
	case errors.Is(err, storage.ErrOptionNotFound):
		return ErrInvalidOption
	case errors.Is(err, storage.ErrAlreadyVoted):
		return ErrAlreadyVoted
	default:
		return nil
	}
}

func applyPatch(poll models.Poll, patch models.PollPatch) models.Poll {
	merged := poll.Clone()
	if patch.Question != nil {
		merged.Question = strings.TrimSpace(*patch.Question)
	}
	if patch.Options != nil {
		merged.Options = trimAll(patch.Options)
	}
	if patch.DurationMinutes != nil {
		merged.DurationMinutes = *patch.DurationMinutes
		merged.ExpiresAt = expiresAt(merged.CreatedAt, merged.DurationMinutes)
	}
	if patch.IsPrivate != nil {
		merged.IsPrivate = *patch.IsPrivate
	}
	if patch.AllowedUsers != nil {
		merged.AllowedUsers = normalizeAllowedUsers(*patch.AllowedUsers)
	}
	return merged
}

func expiresAt(createdAt time.Time, durationMinutes int) time.Time {
	return createdAt.Add(time.Duration(durationMinutes) * time.Minute)
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// normalizeAllowedUsers lower-cases email entries and drops duplicates.
// Entries without "@" are user ids and are kept as given.
func normalizeAllowedUsers(users []string) []string {
	out := make([]string, 0, len(users))
	seen := make(map[string]struct{}, len(users))
	for _, u := range users {
		u = strings.TrimSpace(u)
		if strings.Contains(u, "@") {
			u = strings.ToLower(u)
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
