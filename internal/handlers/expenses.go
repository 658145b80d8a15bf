package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"expense-api/internal/apperr"
	"expense-api/internal/models"

	"github.com/go-chi/chi/v5"
)

const notFoundOrForbidden = "Expense not found or not authorized"

type expenseRequest struct {
	Category string         `json:"category"`
	Amount   *models.Amount `json:"amount"`
	Date     *models.Date   `json:"date"`
}

func (req expenseRequest) input(op string) (models.ExpenseInput, error) {
	if req.Amount == nil {
		return models.ExpenseInput{}, apperr.Validation(op, "amount is required")
	}
	if req.Date == nil {
		return models.ExpenseInput{}, apperr.Validation(op, "date is required")
	}
	return models.ExpenseInput{
		Category: strings.TrimSpace(req.Category),
		Amount:   *req.Amount,
		Date:     *req.Date,
	}, nil
}

func parseExpenseRequest(w http.ResponseWriter, r *http.Request, op string) (models.ExpenseInput, error) {
	var req expenseRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		return models.ExpenseInput{}, err
	}
	return req.input(op)
}

func parseExpenseID(r *http.Request, op string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(op, "invalid expense id")
	}
	return id, nil
}

// CreateExpense adds an expense for the logged-in user.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.CreateExpense"
	ident := IdentityFromContext(r.Context())

	in, err := parseExpenseRequest(w, r, op)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	id, err := h.db.CreateExpense(r.Context(), ident.UserID(), in)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	w.Header().Set("Location", "/expenses/"+strconv.FormatInt(id, 10))
	writeJSON(w, http.StatusCreated, "Expense added successfully")
}

// ListExpenses returns the logged-in user's expenses, newest first.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	expenses, err := h.db.ListExpensesByUser(r.Context(), ident.UserID())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

// UpdateExpense overwrites one of the logged-in user's expenses.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.UpdateExpense"
	ident := IdentityFromContext(r.Context())

	id, err := parseExpenseID(r, op)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	in, err := parseExpenseRequest(w, r, op)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if err := h.db.UpdateExpense(r.Context(), ident.UserID(), id, in); err != nil {
		h.fail(w, r, err, notFoundOrForbidden)
		return
	}
	writeJSON(w, http.StatusOK, "Expense updated successfully")
}

// DeleteExpense removes one of the logged-in user's expenses.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.DeleteExpense"
	ident := IdentityFromContext(r.Context())

	id, err := parseExpenseID(r, op)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if err := h.db.DeleteExpense(r.Context(), ident.UserID(), id); err != nil {
		h.fail(w, r, err, notFoundOrForbidden)
		return
	}
	writeJSON(w, http.StatusOK, "Expense deleted successfully")
}
