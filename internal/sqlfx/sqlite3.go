package sqlfx

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/yurykabanov/backup-server/pkg/domain"
	"github.com/yurykabanov/backup-server/pkg/storage"
)

const (
	ConfigDatabaseDSN = "db.dsn"

	DatabaseName = "backup-server"
)

type SqliteConfig struct {
	DSN          string
	DatabaseName string
}

func SqliteConfigProvider(v *viper.Viper) (*SqliteConfig, error) {
	return &SqliteConfig{
		DSN:          v.GetString(ConfigDatabaseDSN),
		DatabaseName: DatabaseName,
	}, nil
}

func OpenSqliteDatabase(config *SqliteConfig, logger *logrus.Logger) (*sqlx.DB, error) {
	logger.WithField("dsn", config.DSN).Debug("Connecting to DB with DSN")

	if dir := databaseDir(config.DSN); dir != "" {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return nil, errors.Wrap(err, "Unable to create DB directory")
		}
	}

	db, err := sqlx.Open("sqlite3", config.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to connect to DB")
	}

	err = storage.Migrate(db, config.DatabaseName)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// databaseDir returns the directory of a file DSN, if any.
func databaseDir(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "file:")

	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		dsn = dsn[:i]
	}

	if dsn == "" || dsn == ":memory:" {
		return ""
	}

	return filepath.Dir(dsn)
}

func CloseSqliteDatabase(lc fx.Lifecycle, db *sqlx.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
}

func ArchiveRepository(db *sqlx.DB) (*storage.ArchiveRepository, domain.ArchiveRepository) {
	repo := storage.NewArchiveRepository(db)

	return repo, repo
}
