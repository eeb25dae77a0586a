// Package activity keeps a local sqlite journal of dispatched actions.
package activity

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Entry statuses.
const (
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
	StatusInvalid   = "invalid"
)

// Entry is one journaled action.
type Entry struct {
	ID        string
	Action    string
	Status    string
	Account   string
	TxHashes  []string
	Error     string
	CreatedAt time.Time
}

// Journal is an append-only activity log.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path and applies migrations.
func Open(path string) (*Journal, error) {
	if err := migrateUp(path); err != nil {
		return nil, fmt.Errorf("migrating activity journal: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening activity journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// migrateUp runs on its own connection; closing the migrator closes it.
func migrateUp(path string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+path)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends e.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO activity (id, action, status, account, tx_hashes, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.Status, e.Account, strings.Join(e.TxHashes, ","), e.Error, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", e.ID, err)
	}
	return nil
}

// List returns up to limit entries, newest first. A non-empty action
// restricts the result to that action.
func (j *Journal) List(ctx context.Context, action string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT id, action, status, account, tx_hashes, error, created_at FROM activity`
	args := []any{}
	if action != "" {
		q += ` WHERE action = ?`
		args = append(args, action)
	}
	q += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			hashes string
			ms     int64
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.Status, &e.Account, &hashes, &e.Error, &ms); err != nil {
			return nil, err
		}
		if hashes != "" {
			e.TxHashes = strings.Split(hashes, ",")
		}
		e.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
