package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"expense-api/internal/apperr"
	"expense-api/internal/auth"
	"expense-api/internal/logging"
	"expense-api/internal/metrics"
	"expense-api/internal/models"

	"github.com/go-chi/chi/v5"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// IdentityContextKey is the context key for the authenticated identity.
	IdentityContextKey contextKey = "identity"
	// DefaultSessionCookieName is the name of the session cookie.
	DefaultSessionCookieName = "user_sid"

	maxBodyBytes = 1 << 20
)

// Store is the persistence used by the HTTP handlers.
type Store interface {
	CreateExpense(ctx context.Context, userID int64, in models.ExpenseInput) (int64, error)
	ListExpensesByUser(ctx context.Context, userID int64) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, userID, id int64, in models.ExpenseInput) error
	DeleteExpense(ctx context.Context, userID, id int64) error
	Ping(ctx context.Context) error
}

// Options configures Handlers.
type Options struct {
	CookieName   string
	SecureCookie bool
	StaticDir    string
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db       Store
	sessions *auth.SessionManager
	log      *slog.Logger
	metrics  *metrics.Metrics

	cookieName   string
	secureCookie bool
	staticDir    string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db Store, sessions *auth.SessionManager, opts Options) *Handlers {
	if opts.CookieName == "" {
		opts.CookieName = DefaultSessionCookieName
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handlers{
		db:           db,
		sessions:     sessions,
		log:          opts.Logger,
		metrics:      opts.Metrics,
		cookieName:   opts.CookieName,
		secureCookie: opts.SecureCookie,
		staticDir:    opts.StaticDir,
	}
}

// Routes registers every page and API route on r.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/login", h.LoginPage)
	r.Get("/register", h.RegisterPage)
	r.Get("/db-test", h.DBTest)

	r.Group(func(r chi.Router) {
		r.Use(h.LoadSession)

		r.Post("/register", h.Register)
		r.Post("/api/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/current-user", h.CurrentUser)
		r.Get("/check-session", h.CheckSession)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Post("/expenses", h.CreateExpense)
			r.Get("/expenses", h.ListExpenses)
			r.Put("/expenses/{id}", h.UpdateExpense)
			r.Delete("/expenses/{id}", h.DeleteExpense)
		})
	})
}

// IdentityFromContext retrieves the authenticated identity from the request context.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	if ident, ok := ctx.Value(IdentityContextKey).(*auth.Identity); ok {
		return ident
	}
	return nil
}

// WithIdentity returns a copy of ctx carrying ident.
func WithIdentity(ctx context.Context, ident *auth.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, ident)
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, r *http.Request, value string) {
	h.writeCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	h.writeCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeCookie replaces any Set-Cookie already queued for the same cookie name.
func (h *Handlers) writeCookie(w http.ResponseWriter, c *http.Cookie) {
	prefix := c.Name + "="
	var kept []string
	for _, v := range w.Header().Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	w.Header().Del("Set-Cookie")
	for _, v := range kept {
		w.Header().Add("Set-Cookie", v)
	}
	http.SetCookie(w, c)
}

func (h *Handlers) sessionID(r *http.Request) string {
	cookie, err := r.Cookie(h.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps err onto a status and a client-safe JSON message.
// Infrastructure and unknown errors are logged and answered with a generic 500.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case apperr.IsConflict(err):
		writeJSON(w, http.StatusConflict, "User already exists")
	case apperr.IsNotFound(err):
		if notFoundMsg == "" {
			notFoundMsg = apperr.Message(err)
		}
		writeJSON(w, http.StatusNotFound, notFoundMsg)
	case apperr.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, apperr.Message(err))
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, "Unauthorized")
	default:
		h.log.ErrorContext(r.Context(), "http.handler.fail",
			"request_id", logging.RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		writeJSON(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrInvalidDate):
			return apperr.Validation(op, err.Error())
		default:
			return apperr.Validation(op, "invalid JSON body")
		}
	}
	return nil
}
