package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"expense-api/internal/apperr"
	"expense-api/internal/auth"
	"expense-api/internal/storage"

	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address used to log in")
	username := fs.String("user", "", "Display name (defaults to the part of the email before @)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", "expenses.db", "Path to SQLite database file")
	dbURL := fs.String("database-url", "", "PostgreSQL connection URL (overrides -db)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-user <username>] [-password <password>] [-db <db_path> | -database-url <url>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}
	if *username == "" {
		*username, _, _ = strings.Cut(strings.TrimSpace(*email), "@")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout) // Print newline after password input
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	// Allow overriding db location via env vars if not explicitly set via flags (flag defaults are used)
	if path := os.Getenv("DB_PATH"); path != "" && *dbPath == "expenses.db" {
		*dbPath = path
	}
	if u := os.Getenv("DATABASE_URL"); u != "" && *dbURL == "" {
		*dbURL = u
	}

	ctx := context.Background()
	db, err := openDB(ctx, *dbPath, *dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	sessions := auth.NewSessionManager(db, auth.DefaultSessionTTL)
	user, err := sessions.Register(ctx, *email, *username, password)
	switch {
	case apperr.IsConflict(err):
		return fmt.Errorf("user %s already exists", storage.NormalizeEmail(*email))
	case err != nil:
		return fmt.Errorf("failed to create user: %w", err)
	}

	user, err = db.GetUserByID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to read back user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s <%s> created successfully with ID %d\n", user.Username, user.Email, user.ID)
	return nil
}

func openDB(ctx context.Context, path, url string) (*storage.DB, error) {
	if url != "" {
		return storage.Open(ctx, storage.Postgres, url)
	}
	return storage.Open(ctx, storage.SQLite, path)
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
