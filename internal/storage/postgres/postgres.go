package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/14kear/online_voting/polls-service/migrations"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Storage struct {
	db *sql.DB
}

func New(postgresURL string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Migrate applies every embedded migration that has not been applied yet.
func (s *Storage) Migrate() error {
	const op = "storage.postgres.Migrate"

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	driver, err := migratepg.WithInstance(s.db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// validID reports whether id can be compared against a uuid column.
// Anything else cannot name a stored row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// textArray never yields NULL, the array columns are NOT NULL.
func textArray(values []string) interface{} {
	return pq.Array(append([]string{}, values...))
}
