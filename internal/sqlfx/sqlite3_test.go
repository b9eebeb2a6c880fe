package sqlfx

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseDir(t *testing.T) {
	tests := []struct {
		dsn      string
		expected string
	}{
		{"./db/backup-server.db", "db"},
		{"file:/var/lib/backup-server/registry.db?_busy_timeout=5000", "/var/lib/backup-server"},
		{"registry.db", "."},
		{":memory:", ""},
		{"file::memory:?cache=shared", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, databaseDir(tt.dsn), tt.dsn)
	}
}

func TestOpenSqliteDatabase(t *testing.T) {
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	dsn := filepath.Join(t.TempDir(), "nested", "registry.db")

	db, err := OpenSqliteDatabase(&SqliteConfig{DSN: dsn, DatabaseName: DatabaseName}, logger)

	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM archives"))
	assert.Equal(t, 0, count)
	assert.FileExists(t, dsn)
}
