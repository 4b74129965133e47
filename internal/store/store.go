package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	// Hosted Postgres driver.
	_ "github.com/lib/pq"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store holds the database handle and provides access to repositories.
type Store struct {
	db      *sql.DB
	drv     *entsql.Driver
	dialect string
	seq     *sequenceCounter
}

// Open creates a new Store for the given driver and DSN.
// SQLite connections get the recommended pragmas. Both drivers run
// auto-migration before returning.
func Open(driver, dsn string) (*Store, error) {
	var d string
	switch driver {
	case DriverSQLite, "":
		driver, d = DriverSQLite, dialect.SQLite
	case DriverPostgres:
		d = dialect.Postgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if d == dialect.SQLite {
		// In-memory databases are per-connection.
		db.SetMaxOpenConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	drv := entsql.OpenDB(d, db)
	if err := migrate(context.Background(), drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		drv.Close()
		return nil, err
	}

	return &Store{db: db, drv: drv, dialect: d, seq: seq}, nil
}

// OpenSQLite opens a SQLite store at path.
func OpenSQLite(path string) (*Store, error) {
	return Open(DriverSQLite, path)
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the ent dialect name of the connection.
func (s *Store) Dialect() string {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// AssessmentRepo returns an AssessmentRepo backed by this store.
func (s *Store) AssessmentRepo() AssessmentRepo {
	return &assessmentRepo{db: s.db, dialect: s.dialect, seq: s.seq}
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{db: s.db, dialect: s.dialect, seq: s.seq}
}

func migrate(ctx context.Context, drv *entsql.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, Tables...)
}

// applyPragmas configures SQLite for a single-node deployment.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. VERITRUSTX_DB environment variable
// 2. $XDG_DATA_HOME/veritrustx/veritrustx.db
// 3. ~/.local/share/veritrustx/veritrustx.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("VERITRUSTX_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "veritrustx", "veritrustx.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
