// Package fixtures creates the tests_users and tests_users2 tables used to
// exercise seeding against a real SQLite database.
package fixtures

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Tables created by Migrate.
const (
	UsersTable  = "tests_users"
	Users2Table = "tests_users2"
)

// Migrate applies all fixture migrations to a SQLite database.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

// Reset rolls every fixture migration back.
func Reset(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.Reset(db, "migrations"); err != nil {
		return fmt.Errorf("goose reset: %w", err)
	}

	return nil
}
