// Package fixture writes real database files for tests. Files are produced
// by a SQL engine so readers are checked against the genuine on-disk format
// rather than against bytes built by hand.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite
//   - -tags cgo_sqlite: mattn/go-sqlite3
package fixture

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"
)

// DriverName returns the database/sql driver name in use.
func DriverName() string {
	return driverName
}

// DriverType returns "purego" or "cgo".
func DriverType() string {
	return driverType
}

// Create builds a database at path by executing stmts in order.
// An existing file at path is replaced.
func Create(path string, stmts ...string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()
	// One connection so temp state and pragmas apply to every statement.
	db.SetMaxOpenConns(1)

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return db.Close()
}

// MustCreate creates a database under t.TempDir and returns its path.
func MustCreate(t testing.TB, name string, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := Create(path, stmts...); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return path
}

// Compress writes an xz-compressed copy of src to dst.
func Compress(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return fmt.Errorf("xz writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("xz write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("xz close: %w", err)
	}
	return os.WriteFile(dst, buf.Bytes(), 0o600)
}
