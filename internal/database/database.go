package database

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver ("pgx")
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // SQLite driver ("sqlite")
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	driverPostgres = "pgx"
	driverSQLite   = "sqlite"
)

func init() {
	// sqlx does not know modernc's driver name; without this Rebind leaves
	// queries untouched anyway, but be explicit about the placeholder style.
	sqlx.BindDriver(driverSQLite, sqlx.QUESTION)
}

// New opens a connection pool for databaseURL and verifies it with a ping.
// Supported forms are postgres://, postgresql:// and sqlite://<path>.
func New(databaseURL string) (*sqlx.DB, error) {
	driver, dsn, err := parseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if driver == driverSQLite {
		// A single connection keeps :memory: databases shared and serializes writers.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

func parseURL(databaseURL string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return driverPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		dsn = strings.TrimPrefix(databaseURL, "sqlite://")
		if dsn == "" {
			return "", "", fmt.Errorf("empty sqlite path in database url")
		}
		return driverSQLite, dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported database url %q", databaseURL)
	}
}

// Migrate applies the embedded schema migrations.
func Migrate(db *sqlx.DB) error {
	dialect := "postgres"
	if db.DriverName() == driverSQLite {
		dialect = "sqlite3"
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.Up(db.DB, "migrations")
}

// gooseLogger routes migration output through zerolog.
type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	log.Fatal().Msgf(strings.TrimSpace(format), v...)
}

func (gooseLogger) Printf(format string, v ...interface{}) {
	log.Info().Str("component", "migrations").Msgf(strings.TrimSpace(format), v...)
}
