package auth

import (
	"context"
	"strings"
	"time"

	"expense-api/internal/apperr"
	"expense-api/internal/models"
	"expense-api/internal/storage"
)

// DefaultSessionTTL is the sliding lifetime of a session.
const DefaultSessionTTL = 10 * time.Minute

// Store is the persistence the session manager needs.
// *storage.DB satisfies it.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, email, username, passwordHash string) (*models.User, error)

	CreateSession(ctx context.Context, id string, data models.SessionData, expiresAt time.Time) error
	ReadSession(ctx context.Context, id string, now time.Time) (*storage.SessionInfo, error)
	TouchSession(ctx context.Context, id string, expiresAt time.Time) error
	DestroySession(ctx context.Context, id string) error
	CleanExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Identity is the authenticated user resolved from a session.
type Identity struct {
	SessionID string
	ExpiresAt time.Time
	User      models.User
}

// UserID is a shorthand for Identity.User.ID.
func (i *Identity) UserID() int64 { return i.User.ID }

// SessionManager creates, resolves and destroys server-side sessions.
type SessionManager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionManager returns a manager over store. A non-positive ttl selects DefaultSessionTTL.
func NewSessionManager(store Store, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{store: store, ttl: ttl, now: time.Now}
}

// TTL returns the sliding session lifetime.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Register creates a user account with a freshly hashed password.
func (m *SessionManager) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	const op = "auth.Register"
	email = storage.NormalizeEmail(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return nil, apperr.Validation(op, "email, username and password are required")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperr.Infrastructure(op, err)
	}
	return m.store.CreateUser(ctx, email, username, hash)
}

// Login checks credentials and opens a new session for the user.
// An unknown email is apperr.ErrNotFound; a wrong password is apperr.ErrValidation
// with the same message for every account.
func (m *SessionManager) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	const op = "auth.Login"
	if strings.TrimSpace(email) == "" || password == "" {
		return "", nil, apperr.Validation(op, "email and password are required")
	}

	user, err := m.store.FindUserByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, apperr.NotFound(op, "User not found")
	}
	if !CheckPassword(password, user.PasswordHash) {
		return "", nil, apperr.Validation(op, "Invalid Email or Password")
	}

	id, err := GenerateSessionToken()
	if err != nil {
		return "", nil, apperr.Infrastructure(op, err)
	}

	sessionUser := *user
	sessionUser.PasswordHash = ""
	if err := m.store.CreateSession(ctx, id, models.SessionData{User: &sessionUser}, m.now().Add(m.ttl)); err != nil {
		return "", nil, err
	}
	return id, &sessionUser, nil
}

// Resolve returns the identity behind a session id and slides its expiry to now+ttl.
// It returns nil when the session is missing, expired or carries no user.
func (m *SessionManager) Resolve(ctx context.Context, sessionID string) (*Identity, error) {
	if sessionID == "" {
		return nil, nil
	}
	now := m.now()
	info, err := m.store.ReadSession(ctx, sessionID, now)
	if err != nil {
		return nil, err
	}
	if info == nil || info.Data.User == nil {
		return nil, nil
	}

	expiresAt := now.Add(m.ttl)
	if err := m.store.TouchSession(ctx, sessionID, expiresAt); err != nil {
		return nil, err
	}
	return &Identity{SessionID: sessionID, ExpiresAt: expiresAt, User: *info.Data.User}, nil
}

// Logout destroys the session. Unknown ids are not an error.
func (m *SessionManager) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return m.store.DestroySession(ctx, sessionID)
}

// Prune deletes every expired session and reports how many were removed.
func (m *SessionManager) Prune(ctx context.Context) (int64, error) {
	return m.store.CleanExpiredSessions(ctx, m.now())
}
