// Package persistence stores the player's save record.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/talgya/pawnshop/internal/shop"
)

// DefaultKey is the record name used when the caller has no slot of its own.
const DefaultKey = "pawnShopSave"

// ErrNoSave is returned by Load when no record exists under the key.
var ErrNoSave = errors.New("no saved game found")

// Store reads and writes save records by key.
type Store interface {
	Save(ctx context.Context, key string, s shop.SaveState) error
	Load(ctx context.Context, key string) (shop.SaveState, error)
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver   string // "sqlite" (default) or "mongo"
	Path     string // SQLite file
	MongoURI string
	Database string // Mongo database name
}

// Open connects to the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "sqlite":
		if opts.Path == "" {
			opts.Path = "pawnshop.db"
		}
		return OpenSQLite(opts.Path)
	case "mongo", "mongodb":
		return OpenMongo(ctx, opts.MongoURI, opts.Database)
	}
	return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
}
