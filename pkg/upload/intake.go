package upload

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/backup-server/pkg/appcontext"
	"github.com/yurykabanov/backup-server/pkg/domain"
)

// Form fields named OverridePrefix+<file field> carry client chosen names
// for the files uploaded under <file field>.
const OverridePrefix = "filename_"

type stagingStore interface {
	PathFor(database string) string
	EnsureDir(dir string) error
}

// Intake moves spooled uploads into the staging directory of a database.
type Intake struct {
	logger  logrus.FieldLogger
	staging stagingStore
}

func NewIntake(logger logrus.FieldLogger, staging stagingStore) *Intake {
	return &Intake{
		logger:  logger,
		staging: staging,
	}
}

// Relocate renames every file into the staging directory, replacing files
// of the same name. It is not all-or-nothing: on failure files moved so far
// stay where they are, and temp files not moved yet are deleted.
func (i *Intake) Relocate(ctx context.Context, database string, files []domain.UploadedFile, overrides map[string][]string) error {
	logger := appcontext.LoggerFromContext(i.logger, ctx)

	if database == "" {
		return &domain.ValidationError{Field: "database", Reason: "Database name is required"}
	}

	if len(files) == 0 {
		return &domain.ValidationError{Field: "files", Reason: "Backup files are required"}
	}

	dir := i.staging.PathFor(database)

	err := i.staging.EnsureDir(dir)
	if err != nil {
		i.Discard(files)
		return &domain.FilesystemError{Op: "prepare restore directory", Err: err}
	}

	names := ResolveNames(files, overrides)

	for n, file := range files {
		dest := filepath.Join(dir, names[n])

		err = os.Rename(file.TempPath, dest)
		if err != nil {
			i.Discard(files[n:])
			return &domain.FilesystemError{Op: "move uploaded file " + names[n], Err: err}
		}

		logger.WithFields(logrus.Fields{"file": names[n], "size": file.Size}).Debug("Uploaded file relocated")
	}

	return nil
}

// Discard removes temp files that still exist. Errors are ignored.
func (i *Intake) Discard(files []domain.UploadedFile) {
	for _, file := range files {
		if file.TempPath == "" {
			continue
		}

		err := os.Remove(file.TempPath)
		if err != nil && !os.IsNotExist(err) {
			i.logger.WithError(err).WithField("path", file.TempPath).Warn("Unable to remove uploaded file")
		}
	}
}

// ResolveNames picks the final base name for every file: the n-th override
// for its field (the first one when there are fewer overrides than files),
// otherwise the original name. Directory components are always stripped.
func ResolveNames(files []domain.UploadedFile, overrides map[string][]string) []string {
	names := make([]string, len(files))
	seen := make(map[string]int)

	for n, file := range files {
		name := file.OriginalName

		if values := overrides[OverridePrefix+file.FieldName]; len(values) > 0 {
			idx := seen[file.FieldName]
			if idx >= len(values) {
				idx = 0
			}

			if values[idx] != "" {
				name = values[idx]
			}
		}
		seen[file.FieldName]++

		names[n] = baseName(name)
		if names[n] == "" {
			names[n] = filepath.Base(file.TempPath)
		}
	}

	return names
}

func baseName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))

	switch name {
	case ".", "..", "/":
		return ""
	}

	return name
}
