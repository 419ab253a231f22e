package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/user-service/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateInfo(ctx context.Context, user *domain.User) error
	Enable(ctx context.Context, username string) error
	SoftDelete(ctx context.Context, username string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, email, password_hash, first_name, last_name, address, city, phone, enabled, authorities)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Address,
		user.City,
		user.Phone,
		user.Enabled,
		domain.RoleNames(user.Authorities),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
        SELECT id, username, email, password_hash, first_name, last_name, address, city, phone, enabled, authorities, created_at, updated_at
        FROM users WHERE username=$1`

	var user domain.User
	var authorities []string
	if err := r.pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Address,
		&user.City,
		&user.Phone,
		&user.Enabled,
		&authorities,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Authorities = domain.RolesFromNames(authorities)
	return &user, nil
}

func (r *userRepository) UpdateInfo(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET first_name=$1, last_name=$2, address=$3, city=$4, phone=$5, updated_at=NOW()
        WHERE username=$6`

	cmd, err := r.pool.Exec(ctx, query,
		user.FirstName,
		user.LastName,
		user.Address,
		user.City,
		user.Phone,
		user.Username,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Enable(ctx context.Context, username string) error {
	return r.setEnabled(ctx, username, true)
}

func (r *userRepository) SoftDelete(ctx context.Context, username string) error {
	return r.setEnabled(ctx, username, false)
}

func (r *userRepository) setEnabled(ctx context.Context, username string, enabled bool) error {
	const query = `UPDATE users SET enabled=$1, updated_at=NOW() WHERE username=$2`

	cmd, err := r.pool.Exec(ctx, query, enabled, username)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
