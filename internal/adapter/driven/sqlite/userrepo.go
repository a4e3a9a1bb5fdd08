package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knguessan/moodlewatch/internal/domain/model"
	"github.com/knguessan/moodlewatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port. It only ever
// stores vault ciphertext in platform_secret; encryption happens at the
// boundary that accepted the plaintext.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new roster entry.
func (r *UserRepo) Create(ctx context.Context, email, fullName string) (*model.User, error) {
	const query = `INSERT INTO users (email, full_name) VALUES (?, ?)`
	res, err := r.db.Writer.ExecContext(ctx, query, email, fullName)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, fmt.Errorf("create user %q: %w", email, driven.ErrEmailTaken)
		}
		return nil, fmt.Errorf("create user %q: %w", email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user %q: last insert id: %w", email, err)
	}

	return r.getByID(ctx, id)
}

// GetByEmail returns the user with the given email, or (nil, nil) when absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const query = `SELECT id, email, full_name, platform_username, platform_secret, created_at, updated_at
		FROM users WHERE email = ?`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", email, err)
	}
	return user, nil
}

// ListWithPlatformAccount returns every user with a connected Moodle account.
func (r *UserRepo) ListWithPlatformAccount(ctx context.Context) ([]model.User, error) {
	const query = `SELECT id, email, full_name, platform_username, platform_secret, created_at, updated_at
		FROM users WHERE platform_username != '' AND platform_secret != '' ORDER BY email`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users with platform account: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// SetPlatformAccount stores or replaces the user's platform username and
// encrypted credential.
func (r *UserRepo) SetPlatformAccount(ctx context.Context, email, platformUsername, encryptedSecret string) error {
	const query = `UPDATE users
		SET platform_username = ?, platform_secret = ?, updated_at = CURRENT_TIMESTAMP
		WHERE email = ?`

	res, err := r.db.Writer.ExecContext(ctx, query, platformUsername, encryptedSecret, email)
	if err != nil {
		return fmt.Errorf("set platform account for %q: %w", email, err)
	}
	return requireRow(res, email)
}

// ClearPlatformAccount disconnects the user's Moodle account.
func (r *UserRepo) ClearPlatformAccount(ctx context.Context, email string) error {
	const query = `UPDATE users
		SET platform_username = '', platform_secret = '', updated_at = CURRENT_TIMESTAMP
		WHERE email = ?`

	res, err := r.db.Writer.ExecContext(ctx, query, email)
	if err != nil {
		return fmt.Errorf("clear platform account for %q: %w", email, err)
	}
	return requireRow(res, email)
}

func (r *UserRepo) getByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT id, email, full_name, platform_username, platform_secret, created_at, updated_at
		FROM users WHERE id = ?`

	user, err := scanUser(r.db.Writer.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get user id %d: %w", id, err)
	}
	return user, nil
}

// requireRow converts a zero-row update into a not-found error so callers can
// distinguish "no such user" from success.
func requireRow(res sql.Result, email string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %q not found", email)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	var createdAt, updatedAt string
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PlatformUsername,
		&user.EncryptedSecret,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &user, nil
}

// parseTime handles the timestamp layouts SQLite emits for CURRENT_TIMESTAMP
// values and RFC 3339 strings written by Go.
func parseTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
