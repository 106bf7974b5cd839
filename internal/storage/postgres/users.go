package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
	"github.com/14kear/online_voting/polls-service/internal/storage"
)

func (s *Storage) SaveUser(ctx context.Context, user models.User) error {
	const op = "storage.postgres.SaveUser"

	const query = `INSERT INTO users (id, email, pass_hash, role, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query, user.ID, strings.ToLower(user.Email), user.PassHash, string(user.Role), user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrUserAlreadyExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgres.UserByEmail"

	const query = `SELECT id, email, pass_hash, role, created_at FROM users WHERE email = $1`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) UserByID(ctx context.Context, id string) (models.User, error) {
	const op = "storage.postgres.UserByID"

	if !validID(id) {
		return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	const query = `SELECT id, email, pass_hash, role, created_at FROM users WHERE id = $1`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) SearchUsersByEmailPrefix(ctx context.Context, prefix string, limit int) ([]models.UserRef, error) {
	const op = "storage.postgres.SearchUsersByEmailPrefix"

	if limit <= 0 {
		limit = storage.DefaultSearchLimit
	}

	const query = `SELECT id, email FROM users WHERE email LIKE $1 ESCAPE '\' ORDER BY email LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, likePrefix(strings.ToLower(prefix)), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	refs := make([]models.UserRef, 0)
	for rows.Next() {
		var ref models.UserRef
		if err := rows.Scan(&ref.ID, &ref.Email); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}

	return refs, nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var (
		user models.User
		role string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.PassHash, &role, &user.CreatedAt); err != nil {
		return models.User{}, err
	}

	parsed, err := models.ParseRole(role)
	if err != nil {
		return models.User{}, err
	}
	user.Role = parsed

	return user, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
