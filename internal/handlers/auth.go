package handlers

import (
	"net/http"

	"expense-api/internal/apperr"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

// Register creates a user account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, "handlers.Register", &req); err != nil {
		h.fail(w, r, err, "")
		return
	}

	user, err := h.sessions.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	h.log.InfoContext(r.Context(), "auth.register", "user_id", user.ID)
	writeJSON(w, http.StatusOK, "User created successfully")
}

// Login checks credentials and starts a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, "handlers.Login", &req); err != nil {
		h.fail(w, r, err, "")
		return
	}

	sid, user, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case apperr.IsNotFound(err):
			h.metrics.ObserveLogin("not_found")
		case apperr.IsValidation(err):
			h.metrics.ObserveLogin("bad_password")
		default:
			h.metrics.ObserveLogin("error")
		}
		h.fail(w, r, err, "User not found")
		return
	}
	h.metrics.ObserveLogin("success")

	// Drop the session the client arrived with so an old id cannot be reused.
	if old := h.sessionID(r); old != "" && old != sid {
		if err := h.sessions.Logout(r.Context(), old); err != nil {
			h.log.WarnContext(r.Context(), "auth.login.drop_old_session.fail", "err", err)
		}
	}

	h.setSessionCookie(w, r, sid)
	h.log.InfoContext(r.Context(), "auth.login", "user_id", user.ID)
	writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", UserID: user.ID})
}

// Logout destroys the session and clears its cookie.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), h.sessionID(r)); err != nil {
		h.log.ErrorContext(r.Context(), "auth.logout.fail", "err", err)
		writeJSON(w, http.StatusInternalServerError, "Error logging out")
		return
	}
	h.clearSessionCookie(w, r)
	writeJSON(w, http.StatusOK, "Logout successful")
}

// CurrentUser reports the username of the logged-in user.
func (h *Handlers) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())
	if ident == nil {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Not authenticated"})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Username string `json:"username"`
	}{ident.User.Username})
}

// CheckSession reports the id of the logged-in user.
func (h *Handlers) CheckSession(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())
	if ident == nil {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Not authenticated"})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		UserID int64 `json:"userId"`
	}{ident.UserID()})
}
