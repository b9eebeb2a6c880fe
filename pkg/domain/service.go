package domain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/backup-server/pkg/appcontext"
	"github.com/yurykabanov/backup-server/pkg/command"
)

const listDatabasesScript = "db.adminCommand('listDatabases').databases.map(d => d.name).join('\\n')"

type ArchiveRepository interface {
	Create(context.Context, Archive) (Archive, error)
	ScheduleDeletion(ctx context.Context, fileName string, downloadedAt, deleteAfter time.Time) error
	FindDueForDeletion(ctx context.Context, now time.Time) ([]Archive, error)
	FindNotDownloadedBefore(ctx context.Context, t time.Time) ([]Archive, error)
	MarkDeleted(ctx context.Context, id int64, at time.Time) error
}

type StagingStore interface {
	PathFor(database string) string
	EnsureDir(dir string) error
	Lock(ctx context.Context, database string) (func(), error)
}

type ArchiveBuilder interface {
	Build(ctx context.Context, sourceDir, rootName, destFile string) <-chan error
}

type UploadIntake interface {
	Relocate(ctx context.Context, database string, files []UploadedFile, overrides map[string][]string) error
	Discard(files []UploadedFile)
}

type ServiceConfig struct {
	ScriptPath    string
	ScriptDir     string
	ScriptTimeout time.Duration

	MongoShell string

	DownloadsDir string
	DeleteDelay  time.Duration
}

// BackupService sequences the dump/archive and intake/restore flows and
// owns the archive lifecycle up to the point it is handed to the janitor.
type BackupService struct {
	logger logrus.FieldLogger
	config ServiceConfig

	script command.Runner // dump/restore script, local
	shell  command.Runner // database shell, inside the database container

	staging  StagingStore
	archiver ArchiveBuilder
	intake   UploadIntake
	repo     ArchiveRepository

	now func() time.Time
}

func NewBackupService(
	logger logrus.FieldLogger,
	config ServiceConfig,
	script command.Runner,
	shell command.Runner,
	staging StagingStore,
	archiver ArchiveBuilder,
	intake UploadIntake,
	repo ArchiveRepository,
) *BackupService {
	return &BackupService{
		logger:   logger,
		config:   config,
		script:   script,
		shell:    shell,
		staging:  staging,
		archiver: archiver,
		intake:   intake,
		repo:     repo,
		now:      time.Now,
	}
}

func (s *BackupService) ListDatabases(ctx context.Context) ([]string, error) {
	out, err := s.shell.Run(ctx, command.Command{
		Name: s.config.MongoShell,
		Args: []string{"--quiet", "--eval", listDatabasesScript},
	})
	if err != nil {
		return nil, err
	}

	databases := []string{}

	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || systemDatabases[name] {
			continue
		}

		databases = append(databases, name)
	}

	return databases, nil
}

func (s *BackupService) Backup(ctx context.Context, database string) (BackupResult, error) {
	if err := ValidateDatabase(database); err != nil {
		return BackupResult{}, err
	}

	ctx = appcontext.WithDatabase(ctx, database)
	logger := appcontext.LoggerFromContext(s.logger, ctx)

	unlock, err := s.staging.Lock(ctx, database)
	if err != nil {
		return BackupResult{}, err
	}
	defer unlock()

	dir := s.staging.PathFor(database)

	err = s.staging.EnsureDir(dir)
	if err != nil {
		return BackupResult{}, &FilesystemError{Op: "prepare staging directory", Err: err}
	}

	logger.Info("Dumping database")

	err = s.runScript(ctx, "-d", database)
	if err != nil {
		return BackupResult{}, err
	}

	createdAt := s.now()
	fileName := fmt.Sprintf("%s_backup_%d.zip", database, createdAt.UnixNano()/int64(time.Millisecond))
	dest := filepath.Join(s.config.DownloadsDir, fileName)

	ctx = appcontext.WithArchive(ctx, fileName)
	logger = appcontext.LoggerFromContext(s.logger, ctx)

	logger.Info("Archiving dump")

	err = <-s.archiver.Build(ctx, dir, database, dest)
	if err != nil {
		return BackupResult{}, &FilesystemError{Op: "archive dump", Err: err}
	}

	s.register(ctx, database, fileName, dest, createdAt)

	logger.Info("Backup is ready for download")

	return BackupResult{
		Message:     fmt.Sprintf("Database \"%s\" backed up successfully", database),
		Path:        dir,
		DownloadUrl: "/download/" + fileName,
	}, nil
}

// register is best effort: an unregistered archive is still served, it is
// only not reaped unless it gets downloaded.
func (s *BackupService) register(ctx context.Context, database, fileName, dest string, createdAt time.Time) {
	logger := appcontext.LoggerFromContext(s.logger, ctx)

	archive := Archive{
		Database:  database,
		FileName:  fileName,
		CreatedAt: createdAt,
	}

	if info, err := os.Stat(dest); err == nil {
		archive.Size = info.Size()
		logger.WithField("size", humanize.Bytes(uint64(archive.Size))).Info("Archive is built")
	} else {
		logger.WithError(err).Warn("Unable to calculate archive size in spite of it has been built successfully")
	}

	_, err := s.repo.Create(ctx, archive)
	if err != nil {
		logger.WithError(err).Error("Unable to register archive")
	}
}

func (s *BackupService) Restore(
	ctx context.Context,
	database string,
	files []UploadedFile,
	overrides map[string][]string,
) (message string, err error) {
	ctx = appcontext.WithDatabase(ctx, database)
	logger := appcontext.LoggerFromContext(s.logger, ctx)

	defer func() {
		if err != nil {
			s.intake.Discard(files)
		}
	}()

	err = ValidateDatabase(database)
	if err != nil {
		return "", err
	}

	if len(files) == 0 {
		return "", &ValidationError{Field: "files", Reason: "Backup files are required"}
	}

	unlock, err := s.staging.Lock(ctx, database)
	if err != nil {
		return "", err
	}
	defer unlock()

	logger.WithField("files", len(files)).Info("Relocating uploaded files")

	err = s.intake.Relocate(ctx, database, files, overrides)
	if err != nil {
		return "", err
	}

	logger.Info("Restoring database")

	// the restore runs to completion even if the client goes away
	err = s.runScript(context.WithoutCancel(ctx), "-r", database)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Database \"%s\" restored successfully", database), nil
}

// OpenArchive opens a ready archive by its download handle. Anything that is
// not a plain file name inside the downloads directory is reported as not
// found.
func (s *BackupService) OpenArchive(ctx context.Context, fileName string) (*os.File, error) {
	if fileName == "" || fileName == "." || fileName == ".." || strings.ContainsAny(fileName, `/\`) {
		return nil, errors.Wrapf(ErrNotFound, "archive %q", fileName)
	}

	f, err := os.Open(filepath.Join(s.config.DownloadsDir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "archive %q", fileName)
		}

		return nil, &FilesystemError{Op: "open archive", Err: err}
	}

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, errors.Wrapf(ErrNotFound, "archive %q", fileName)
	}

	return f, nil
}

// ScheduleDeletion hands a served archive over to the janitor.
func (s *BackupService) ScheduleDeletion(ctx context.Context, fileName string) error {
	now := s.now()

	err := s.repo.ScheduleDeletion(ctx, fileName, now, now.Add(s.config.DeleteDelay))
	if err != nil {
		return errors.Wrap(err, "unable to schedule archive deletion")
	}

	return nil
}

func (s *BackupService) runScript(ctx context.Context, mode, database string) error {
	if s.config.ScriptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ScriptTimeout)
		defer cancel()
	}

	_, err := s.script.Run(ctx, command.Command{
		Name: s.config.ScriptPath,
		Args: []string{mode, "-n", database},
		Dir:  s.config.ScriptDir,
	})

	return err
}
