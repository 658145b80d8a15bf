package storage

import (
	"context"
	"database/sql"
	"errors"
	"unicode/utf8"

	"expense-api/internal/apperr"
	"expense-api/internal/models"
)

// MaxCategoryLen mirrors the VARCHAR(50) category column.
const MaxCategoryLen = 50

const expenseColumns = "id, user_id, category, CAST(amount AS TEXT), CAST(date AS TEXT)"

// CreateExpense inserts a new expense owned by userID and returns its id.
func (db *DB) CreateExpense(ctx context.Context, userID int64, in models.ExpenseInput) (int64, error) {
	const op = "storage.CreateExpense"
	if err := validateExpense(op, in); err != nil {
		return 0, err
	}

	var id int64
	err := db.queryRow(ctx,
		"INSERT INTO expenses (user_id, category, amount, date) VALUES (?, ?, ?, ?) RETURNING id",
		userID, in.Category, in.Amount.Float64(), string(in.Date),
	).Scan(&id)
	if err != nil {
		return 0, apperr.Infrastructure(op, err)
	}
	return id, nil
}

// GetExpense retrieves a single expense owned by userID.
func (db *DB) GetExpense(ctx context.Context, userID, id int64) (*models.Expense, error) {
	const op = "storage.GetExpense"
	row := db.queryRow(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ? AND user_id = ?",
		id, userID,
	)

	var (
		e                models.Expense
		category         sql.NullString
		amount, dateText sql.NullString
	)
	if err := row.Scan(&e.ID, &e.UserID, &category, &amount, &dateText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(op, "expense")
		}
		return nil, apperr.Infrastructure(op, err)
	}
	if err := fillExpense(&e, category, amount, dateText); err != nil {
		return nil, apperr.Infrastructure(op, err)
	}
	return &e, nil
}

// ListExpensesByUser retrieves every expense owned by userID, newest date first.
// Expenses sharing a date are ordered by id.
func (db *DB) ListExpensesByUser(ctx context.Context, userID int64) ([]models.Expense, error) {
	const op = "storage.ListExpensesByUser"
	rows, err := db.query(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? ORDER BY date DESC, id ASC",
		userID,
	)
	if err != nil {
		return nil, apperr.Infrastructure(op, err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var (
			e                models.Expense
			category         sql.NullString
			amount, dateText sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &category, &amount, &dateText); err != nil {
			return nil, apperr.Infrastructure(op, err)
		}
		if err := fillExpense(&e, category, amount, dateText); err != nil {
			return nil, apperr.Infrastructure(op, err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Infrastructure(op, err)
	}
	return expenses, nil
}

// UpdateExpense overwrites an expense owned by userID.
// The ownership filter and the write are one statement; zero matched rows is
// reported as apperr.ErrNotFound whether the row is missing or owned by someone else.
func (db *DB) UpdateExpense(ctx context.Context, userID, id int64, in models.ExpenseInput) error {
	const op = "storage.UpdateExpense"
	if err := validateExpense(op, in); err != nil {
		return err
	}
	res, err := db.exec(ctx,
		"UPDATE expenses SET category = ?, amount = ?, date = ? WHERE id = ? AND user_id = ?",
		in.Category, in.Amount.Float64(), string(in.Date), id, userID,
	)
	return affectedOne(op, res, err)
}

// DeleteExpense removes an expense owned by userID, with the same scoping as UpdateExpense.
func (db *DB) DeleteExpense(ctx context.Context, userID, id int64) error {
	res, err := db.exec(ctx, "DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	return affectedOne("storage.DeleteExpense", res, err)
}

func affectedOne(op string, res sql.Result, err error) error {
	if err != nil {
		return apperr.Infrastructure(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Infrastructure(op, err)
	}
	if n == 0 {
		return apperr.NotFound(op, "expense")
	}
	return nil
}

func validateExpense(op string, in models.ExpenseInput) error {
	if utf8.RuneCountInString(in.Category) > MaxCategoryLen {
		return apperr.Validationf(op, "category must be at most %d characters", MaxCategoryLen)
	}
	if int64(in.Amount) >= models.MaxAmountCents || int64(in.Amount) <= -models.MaxAmountCents {
		return apperr.Validation(op, models.ErrInvalidAmount.Error())
	}
	if _, err := models.ParseDate(string(in.Date)); err != nil {
		return apperr.Validation(op, err.Error())
	}
	return nil
}

func fillExpense(e *models.Expense, category, amount, dateText sql.NullString) error {
	e.Category = category.String
	if amount.Valid {
		a, err := models.ParseAmount(amount.String)
		if err != nil {
			return err
		}
		e.Amount = a
	}
	if dateText.Valid {
		e.Date = models.Date(dateText.String)
	}
	return nil
}
