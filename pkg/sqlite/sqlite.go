// Package sqlite opens a read-only SQLite database through the pure-Go
// modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

const DriverName = "sqlite"

// Open opens path read-only and verifies the file is a usable database.
// The special path ":memory:" opens a private writable in-memory database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?" + url.Values{"mode": {"ro"}}.Encode()
	}
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// one connection keeps ":memory:" databases shared across queries
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite %s: %w", path, err)
	}
	return db, nil
}
