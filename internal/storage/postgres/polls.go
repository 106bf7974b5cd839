package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
	"github.com/14kear/online_voting/polls-service/internal/storage"
	"github.com/lib/pq"
)

const pollColumns = `p.id, p.question, p.options, p.created_by, p.created_at, p.duration_minutes,
	p.expires_at, p.is_active, p.is_private, p.allowed_users`

func (s *Storage) SavePoll(ctx context.Context, poll models.Poll) error {
	const op = "storage.postgres.SavePoll"

	const query = `INSERT INTO polls (id, question, options, created_by, created_at, duration_minutes,
		expires_at, is_active, is_private, allowed_users)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		poll.ID, poll.Question, textArray(poll.Options), poll.CreatedBy, poll.CreatedAt, poll.DurationMinutes,
		poll.ExpiresAt, poll.IsActive, poll.IsPrivate, textArray(poll.AllowedUsers),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) PollByID(ctx context.Context, id string) (models.Poll, error) {
	const op = "storage.postgres.PollByID"

	if !validID(id) {
		return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
	}

	query := `SELECT ` + pollColumns + ` FROM polls p WHERE p.id = $1`

	poll, err := scanPoll(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
		}
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	polls := []models.Poll{poll}
	if err := s.loadVotes(ctx, polls); err != nil {
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	return polls[0], nil
}

// Polls returns the polls matching query, newest first.
func (s *Storage) Polls(ctx context.Context, query models.PollQuery) ([]models.Poll, error) {
	const op = "storage.postgres.Polls"

	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if query.Viewer != nil && !query.Viewer.IsAdmin() {
		id := arg(query.Viewer.ID)
		email := arg(strings.ToLower(query.Viewer.Email))
		where = append(where, `(NOT p.is_private
			OR p.created_by::text = `+id+`
			OR `+id+` = ANY(p.allowed_users)
			OR `+email+` IN (SELECT lower(u) FROM unnest(p.allowed_users) AS u))`)
	}
	switch query.Visibility {
	case models.VisibilityPublic:
		where = append(where, `NOT p.is_private`)
	case models.VisibilityPrivate:
		where = append(where, `p.is_private`)
	}
	if query.VotedBy != "" {
		where = append(where, `EXISTS (SELECT 1 FROM poll_votes v WHERE v.poll_id = p.id AND v.user_id::text = `+arg(query.VotedBy)+`)`)
	}
	if query.NotVotedBy != "" {
		where = append(where, `NOT EXISTS (SELECT 1 FROM poll_votes v WHERE v.poll_id = p.id AND v.user_id::text = `+arg(query.NotVotedBy)+`)`)
	}

	stmt := `SELECT ` + pollColumns + ` FROM polls p`
	if len(where) > 0 {
		stmt += ` WHERE ` + strings.Join(where, ` AND `)
	}
	stmt += ` ORDER BY p.created_at DESC, p.id`

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	polls := make([]models.Poll, 0)
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		polls = append(polls, poll)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}

	if err := s.loadVotes(ctx, polls); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return polls, nil
}

// UpdatePoll writes the merged fields of an active poll. The new activity is
// derived from the new expiry, so a closed poll is never reopened.
func (s *Storage) UpdatePoll(ctx context.Context, update models.PollUpdate, now time.Time) (models.Poll, error) {
	const op = "storage.postgres.UpdatePoll"

	if !validID(update.ID) {
		return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
	}

	const query = `UPDATE polls SET question = $2, options = $3, duration_minutes = $4, expires_at = $5,
		is_private = $6, allowed_users = $7, is_active = ($5::timestamptz > $8::timestamptz)
		WHERE id = $1 AND is_active`

	res, err := s.db.ExecContext(ctx, query,
		update.ID, update.Question, textArray(update.Options), update.DurationMinutes, update.ExpiresAt,
		update.IsPrivate, textArray(update.AllowedUsers), now,
	)
	if err != nil {
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.PollByID(ctx, update.ID); err != nil {
			return models.Poll{}, fmt.Errorf("%s: %w", op, err)
		}
		return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrPollClosed)
	}

	poll, err := s.PollByID(ctx, update.ID)
	if err != nil {
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	return poll, nil
}

func (s *Storage) DeletePoll(ctx context.Context, id string) error {
	const op = "storage.postgres.DeletePoll"

	if !validID(id) {
		return fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM polls WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
	}

	return nil
}

// ExpirePoll flips is_active to false once expires_at has passed. The guard in
// the WHERE clause makes it idempotent and keeps the flag monotone.
func (s *Storage) ExpirePoll(ctx context.Context, id string, now time.Time) error {
	const op = "storage.postgres.ExpirePoll"

	if !validID(id) {
		return nil
	}

	const query = `UPDATE polls SET is_active = FALSE WHERE id = $1 AND is_active AND expires_at <= $2`

	if _, err := s.db.ExecContext(ctx, query, id, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AppendVoteIfAbsent inserts the vote in one statement that also checks the
// poll is open and the option exists. The primary key on (poll_id, user_id)
// makes concurrent duplicates lose. When nothing was inserted the poll is
// reread to report why.
func (s *Storage) AppendVoteIfAbsent(ctx context.Context, pollID, userID, option string, at time.Time) (models.Poll, error) {
	const op = "storage.postgres.AppendVoteIfAbsent"

	if !validID(pollID) {
		return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
	}

	const query = `INSERT INTO poll_votes (poll_id, user_id, choice, voted_at)
		SELECT p.id, $2::uuid, $3::text, $4::timestamptz FROM polls p
		WHERE p.id = $1 AND p.is_active AND p.expires_at > $4::timestamptz AND $3::text = ANY(p.options)
		ON CONFLICT (poll_id, user_id) DO NOTHING`

	res, err := s.db.ExecContext(ctx, query, pollID, userID, option, at)
	if err != nil {
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	poll, err := s.PollByID(ctx, pollID)
	if err != nil {
		return models.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		switch {
		case !poll.IsActive || poll.ExpiredAt(at):
			return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrPollClosed)
		case !poll.HasOption(option):
			return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrOptionNotFound)
		default:
			return models.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrAlreadyVoted)
		}
	}

	return poll, nil
}

func (s *Storage) loadVotes(ctx context.Context, polls []models.Poll) error {
	if len(polls) == 0 {
		return nil
	}

	ids := make([]string, len(polls))
	index := make(map[string]int, len(polls))
	for i := range polls {
		ids[i] = polls[i].ID
		index[polls[i].ID] = i
		polls[i].Votes = []models.Vote{}
	}

	const query = `SELECT poll_id, user_id, choice, voted_at FROM poll_votes
		WHERE poll_id = ANY($1::uuid[]) ORDER BY voted_at, user_id`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pollID string
			vote   models.Vote
		)
		if err := rows.Scan(&pollID, &vote.UserID, &vote.Option, &vote.VotedAt); err != nil {
			return fmt.Errorf("votes: scan: %w", err)
		}
		if i, ok := index[pollID]; ok {
			polls[i].Votes = append(polls[i].Votes, vote)
		}
	}

	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPoll(row rowScanner) (models.Poll, error) {
	var poll models.Poll
	err := row.Scan(
		&poll.ID, &poll.Question, pq.Array(&poll.Options), &poll.CreatedBy, &poll.CreatedAt,
		&poll.DurationMinutes, &poll.ExpiresAt, &poll.IsActive, &poll.IsPrivate, pq.Array(&poll.AllowedUsers),
	)
	return poll, err
}
