package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/codenames/internal/model"
	"github.com/udisondev/codenames/internal/users"
)

// PostgresUserRepository реализует users.Repository для PostgreSQL.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository создаёт новый PostgreSQL repository.
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// GetByID возвращает пользователя по логину.
// Возвращает nil, nil если пользователь не найден.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, pw_hash, salt, nickname, report_count, is_suspended, wins, losses, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.PasswordHash, &u.Salt, &u.Nickname, &u.ReportCount, &u.Suspended, &u.Wins, &u.Losses, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying user %q: %w", id, err)
	}
	return &u, nil
}

// GetByNickname возвращает пользователя по нику.
// Возвращает nil, nil если пользователь не найден.
func (r *PostgresUserRepository) GetByNickname(ctx context.Context, nick string) (*model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, pw_hash, salt, nickname, report_count, is_suspended, wins, losses, created_at
		 FROM users WHERE nickname = $1`, nick,
	).Scan(&u.ID, &u.PasswordHash, &u.Salt, &u.Nickname, &u.ReportCount, &u.Suspended, &u.Wins, &u.Losses, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying user by nickname %q: %w", nick, err)
	}
	return &u, nil
}

// Create создаёт нового пользователя.
func (r *PostgresUserRepository) Create(ctx context.Context, u *model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, pw_hash, salt, nickname, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.PasswordHash, u.Salt, u.Nickname, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return users.ErrDuplicate
		}
		return fmt.Errorf("creating user %q: %w", u.ID, err)
	}
	return nil
}

// UpdateNickname меняет ник пользователя.
func (r *PostgresUserRepository) UpdateNickname(ctx context.Context, id, nick string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET nickname = $1 WHERE id = $2`, nick, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return users.ErrDuplicate
		}
		return fmt.Errorf("updating nickname for %q: %w", id, err)
	}
	return nil
}

// UpdateReports записывает счётчик жалоб и флаг блокировки.
func (r *PostgresUserRepository) UpdateReports(ctx context.Context, id string, count int, suspended bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET report_count = $1, is_suspended = $2 WHERE id = $3`,
		count, suspended, id,
	)
	if err != nil {
		return fmt.Errorf("updating reports for %q: %w", id, err)
	}
	return nil
}

// AddResult инкрементирует wins либо losses.
func (r *PostgresUserRepository) AddResult(ctx context.Context, id string, win bool) error {
	var err error
	if win {
		_, err = r.pool.Exec(ctx, `UPDATE users SET wins = wins + 1 WHERE id = $1`, id)
	} else {
		_, err = r.pool.Exec(ctx, `UPDATE users SET losses = losses + 1 WHERE id = $1`, id)
	}
	if err != nil {
		return fmt.Errorf("saving result for %q: %w", id, err)
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
