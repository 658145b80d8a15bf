package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"expense-api/internal/apperr"
	"expense-api/internal/models"
)

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CreateUser creates a new user with the given email, username and password hash.
// An existing email yields an apperr.ErrConflict, whether caught by the lookup or by the
// unique constraint when two registrations race.
func (db *DB) CreateUser(ctx context.Context, email, username, passwordHash string) (*models.User, error) {
	const op = "storage.CreateUser"
	email = NormalizeEmail(email)

	existing, err := db.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict(op, "email")
	}

	var id int64
	err = db.queryRow(ctx,
		"INSERT INTO users (email, username, password_hash) VALUES (?, ?, ?) RETURNING id",
		email, username, passwordHash,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict(op, "email")
		}
		return nil, apperr.Infrastructure(op, err)
	}

	return &models.User{ID: id, Email: email, Username: username, PasswordHash: passwordHash}, nil
}

// FindUserByEmail retrieves a user by email. A missing user is (nil, nil).
func (db *DB) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := db.queryRow(ctx,
		"SELECT id, email, username, password_hash FROM users WHERE email = ?",
		NormalizeEmail(email),
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Infrastructure("storage.FindUserByEmail", err)
	}
	return u, nil
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUserByID"
	row := db.queryRow(ctx,
		"SELECT id, email, username, password_hash FROM users WHERE id = ?",
		id,
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(op, "user")
	}
	if err != nil {
		return nil, apperr.Infrastructure(op, err)
	}
	return u, nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	if err := db.queryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, apperr.Infrastructure("storage.UserCount", err)
	}
	return count, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash); err != nil {
		return nil, err
	}
	return &u, nil
}
