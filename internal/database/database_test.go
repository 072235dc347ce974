package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		driver  string
		dsn     string
		wantErr bool
	}{
		{name: "postgres", url: "postgres://u:p@localhost:5432/app", driver: "pgx", dsn: "postgres://u:p@localhost:5432/app"},
		{name: "postgresql", url: "postgresql://localhost/app", driver: "pgx", dsn: "postgresql://localhost/app"},
		{name: "sqlite file", url: "sqlite://./users.db", driver: "sqlite", dsn: "./users.db"},
		{name: "sqlite memory", url: "sqlite://:memory:", driver: "sqlite", dsn: ":memory:"},
		{name: "empty sqlite", url: "sqlite://", wantErr: true},
		{name: "mongo", url: "mongodb://localhost/app", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := parseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.dsn, dsn)
		})
	}
}

func TestNewAndMigrate_SQLiteMemory(t *testing.T) {
	db, err := New("sqlite://:memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	// Running twice is a no-op.
	require.NoError(t, Migrate(db))

	var tables []string
	require.NoError(t, db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'sessions') ORDER BY name`))
	assert.Equal(t, []string{"sessions", "users"}, tables)
}

func TestNew_Unsupported(t *testing.T) {
	_, err := New("mysql://localhost/app")
	assert.Error(t, err)
}
