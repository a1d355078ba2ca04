package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mealwise/meal-plan/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const userColumns = `
	id, email, password_hash, username, role, daily_kcal_target,
	created_at, updated_at, last_login_at`

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Username, &u.Role, &u.DailyKcalTarget,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser inserts a new user with an already-hashed password
func (db *DB) CreateUser(ctx context.Context, req *models.RegisterRequest, passwordHash string) (*models.User, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", req.Email,
	).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	query := fmt.Sprintf(`
		INSERT INTO users (email, password_hash, username, daily_kcal_target)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, userColumns)
	return scanUser(db.Pool.QueryRow(ctx, query,
		req.Email, passwordHash, req.Username, req.DailyKcalTarget))
}

// GetUserByID retrieves a user by ID
func (db *DB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	u, err := scanUser(db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = $1", userColumns)
	u, err := scanUser(db.Pool.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUser applies a partial profile update
func (db *DB) UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error) {
	var setClauses []string
	var args []interface{}
	argIndex := 1

	if req.Username != nil {
		setClauses = append(setClauses, fmt.Sprintf("username = $%d", argIndex))
		args = append(args, *req.Username)
		argIndex++
	}
	if req.DailyKcalTarget != nil {
		setClauses = append(setClauses, fmt.Sprintf("daily_kcal_target = $%d", argIndex))
		args = append(args, *req.DailyKcalTarget)
		argIndex++
	}

	if len(setClauses) == 0 {
		return db.GetUserByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIndex, userColumns)
	args = append(args, id)

	u, err := scanUser(db.Pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUserPassword replaces a user's password hash
func (db *DB) UpdateUserPassword(ctx context.Context, id int, passwordHash string) error {
	tag, err := db.Pool.Exec(ctx,
		"UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1",
		id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserLastLogin stamps the last successful login
func (db *DB) UpdateUserLastLogin(ctx context.Context, id int) error {
	_, err := db.Pool.Exec(ctx,
		"UPDATE users SET last_login_at = NOW() WHERE id = $1", id)
	return err
}
