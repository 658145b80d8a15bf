package handlers

import (
	"net/http"
	"path/filepath"
)

// Home answers the root path with a plain greeting.
func (h *Handlers) Home(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Welcome to the Expense Tracker"))
}

// LoginPage serves the static login page.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, "login.html")
}

// RegisterPage serves the static registration page.
func (h *Handlers) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, "register.html")
}

func (h *Handlers) servePage(w http.ResponseWriter, r *http.Request, name string) {
	if h.staticDir == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.staticDir, name))
}

// DBTest reports whether the database answers a trivial query.
func (h *Handlers) DBTest(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.log.ErrorContext(r.Context(), "db.ping.fail", "err", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Database connection failed"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Database connection successful"})
}
