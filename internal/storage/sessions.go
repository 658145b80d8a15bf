package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"expense-api/internal/apperr"
	"expense-api/internal/models"
)

// SessionInfo holds a stored session and its expiry.
type SessionInfo struct {
	ID        string
	Data      models.SessionData
	ExpiresAt time.Time
}

// CreateSession stores a new session document.
func (db *DB) CreateSession(ctx context.Context, id string, data models.SessionData, expiresAt time.Time) error {
	const op = "storage.CreateSession"
	doc, err := json.Marshal(data)
	if err != nil {
		return apperr.Infrastructure(op, err)
	}
	_, err = db.exec(ctx,
		"INSERT INTO sessions (session_id, expires_at, data) VALUES (?, ?, ?)",
		id, expiresAt.UTC(), string(doc),
	)
	return apperr.Infrastructure(op, err)
}

// ReadSession returns the session with the given id, or nil if it is missing or
// expired as of now.
func (db *DB) ReadSession(ctx context.Context, id string, now time.Time) (*SessionInfo, error) {
	const op = "storage.ReadSession"
	row := db.queryRow(ctx,
		"SELECT session_id, expires_at, CAST(data AS TEXT) FROM sessions WHERE session_id = ?",
		id,
	)

	var (
		info SessionInfo
		doc  sql.NullString
	)
	if err := row.Scan(&info.ID, &info.ExpiresAt, &doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Infrastructure(op, err)
	}
	if !info.ExpiresAt.After(now) {
		return nil, nil
	}
	if doc.Valid && doc.String != "" {
		if err := json.Unmarshal([]byte(doc.String), &info.Data); err != nil {
			return nil, apperr.Infrastructure(op, err)
		}
	}
	return &info, nil
}

// TouchSession moves the expiry of a session to expiresAt.
func (db *DB) TouchSession(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := db.exec(ctx,
		"UPDATE sessions SET expires_at = ? WHERE session_id = ?",
		expiresAt.UTC(), id,
	)
	return apperr.Infrastructure("storage.TouchSession", err)
}

// DestroySession removes a session. Removing a missing session is not an error.
func (db *DB) DestroySession(ctx context.Context, id string) error {
	_, err := db.exec(ctx, "DELETE FROM sessions WHERE session_id = ?", id)
	return apperr.Infrastructure("storage.DestroySession", err)
}

// CleanExpiredSessions removes all sessions that expired at or before now.
func (db *DB) CleanExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.CleanExpiredSessions"
	res, err := db.exec(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, apperr.Infrastructure(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Infrastructure(op, err)
	}
	return n, nil
}
