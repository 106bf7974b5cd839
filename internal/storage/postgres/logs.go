package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
)

func (s *Storage) SaveLog(ctx context.Context, entry models.PollLog) (int64, error) {
	const op = "storage.postgres.SaveLog"

	const query = `INSERT INTO poll_logs (user_id, poll_id, action, choice, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	var option sql.NullString
	if entry.Option != nil {
		option = sql.NullString{String: *entry.Option, Valid: true}
	}

	var id int64
	err := s.db.QueryRowContext(ctx, query, entry.UserID, entry.PollID, string(entry.Action), option, entry.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// Logs returns the most recent entries first. A non-positive limit returns all.
func (s *Storage) Logs(ctx context.Context, limit int) ([]models.PollLog, error) {
	const op = "storage.postgres.Logs"

	query := `SELECT id, user_id, poll_id, action, choice, created_at FROM poll_logs ORDER BY id DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	logs := make([]models.PollLog, 0)
	for rows.Next() {
		var (
			entry  models.PollLog
			action string
			option sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.PollID, &action, &option, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		entry.Action = models.PollAction(action)
		if option.Valid {
			entry.Option = &option.String
		}
		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}

	return logs, nil
}
