package models

// Expense represents a financial expense record owned by one user.
type Expense struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Category string `json:"category"`
	Amount   Amount `json:"amount"`
	Date     Date   `json:"date"`
}

// ExpenseInput holds the user-editable fields of an expense.
type ExpenseInput struct {
	Category string `json:"category"`
	Amount   Amount `json:"amount"`
	Date     Date   `json:"date"`
}

// User represents a user account.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// SessionData is the document stored in sessions.data.
// A nil User marks an anonymous session.
type SessionData struct {
	User *User `json:"user,omitempty"`
}
