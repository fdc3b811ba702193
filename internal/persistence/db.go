package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/pawnshop/internal/shop"
)

// DB wraps a SQLite connection holding save records.
type DB struct {
	conn *sqlx.DB
}

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		key TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		version INTEGER NOT NULL,
		saved_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type saveRow struct {
	Key     string `db:"key"`
	Data    string `db:"data"`
	Version int    `db:"version"`
	SavedAt int64  `db:"saved_at"`
}

// Save writes the record under key, replacing any previous one.
func (db *DB) Save(ctx context.Context, key string, s shop.SaveState) error {
	data, err := shop.EncodeSave(s)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO saves (key, data, version, saved_at) VALUES (?, ?, ?, ?)",
		key, string(data), shop.SaveFormatVersion, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("write save %q: %w", key, err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?), (?, ?)",
		"last_save_key", key, "last_save_at", strconv.FormatInt(now.Unix(), 10),
	)
	if err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("game saved", "key", key, "cash", s.Cash, "items", len(s.Inventory))
	return nil
}

// Load reads and validates the record under key.
func (db *DB) Load(ctx context.Context, key string) (shop.SaveState, error) {
	var row saveRow
	err := db.conn.GetContext(ctx, &row, "SELECT key, data, version, saved_at FROM saves WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return shop.SaveState{}, ErrNoSave
	}
	if err != nil {
		return shop.SaveState{}, fmt.Errorf("read save %q: %w", key, err)
	}
	if row.Version > shop.SaveFormatVersion {
		slog.Warn("save written by a newer version", "key", key, "version", row.Version)
	}
	return shop.DecodeSave([]byte(row.Data))
}

// SaveMeta stores a key-value pair in the metadata table.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

// LastSaveKey returns the key most recently written, or "" if nothing was saved.
func (db *DB) LastSaveKey() (string, error) {
	key, err := db.GetMeta("last_save_key")
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return key, err
}
