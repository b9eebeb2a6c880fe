package domain

import (
	"regexp"
	"time"
)

var databaseNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Reserved databases hidden from listings
var systemDatabases = map[string]bool{
	"admin":  true,
	"config": true,
	"local":  true,
}

// ValidateDatabase checks a database identifier before it reaches any path
// or command line.
func ValidateDatabase(database string) error {
	if database == "" {
		return &ValidationError{Field: "database", Reason: "Database name is required"}
	}

	if !databaseNameRegex.MatchString(database) {
		return &ValidationError{Field: "database", Reason: "Database name may only contain letters, digits, '_' and '-'"}
	}

	return nil
}

// Archive is a produced backup file waiting in the downloads area.
type Archive struct {
	Id int64 `db:"id"`

	Database string `db:"database_name"`
	FileName string `db:"file_name"`
	Size     int64  `db:"size"`

	CreatedAt    time.Time  `db:"created_at"`
	DownloadedAt *time.Time `db:"downloaded_at"`

	// set once the archive has been served, the janitor removes the file after it
	DeleteAfter *time.Time `db:"delete_after"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

// UploadedFile is a restore input already spooled to a server-assigned
// temporary location.
type UploadedFile struct {
	FieldName    string
	OriginalName string
	TempPath     string
	Size         int64
}

type BackupResult struct {
	Message     string `json:"message"`
	Path        string `json:"path"`
	DownloadUrl string `json:"downloadUrl"`
}
