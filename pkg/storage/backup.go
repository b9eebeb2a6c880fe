package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yurykabanov/backup-server/pkg/domain"
)

const (
	archiveInsertQuery = `
		INSERT INTO archives (
			database_name, file_name, size,
			created_at, downloaded_at, delete_after, deleted_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	// Archives served without being registered (e.g. placed there by hand)
	// get a row of their own so the janitor picks them up too.
	archiveScheduleDeletionQuery = `
		INSERT INTO archives (file_name, created_at, downloaded_at, delete_after)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (file_name) DO UPDATE SET
			downloaded_at = excluded.downloaded_at,
			delete_after = excluded.delete_after
	`

	archiveMarkDeletedQuery = `
		UPDATE archives SET deleted_at = ? WHERE id = ?
	`

	archiveSelectDueForDeletion = `
		SELECT
			id,
			database_name, file_name, size,
			created_at, downloaded_at, delete_after, deleted_at
		FROM archives
		WHERE delete_after IS NOT NULL
			AND delete_after <= ?
			AND deleted_at IS NULL
		ORDER BY delete_after
	`

	archiveSelectNotDownloadedBefore = `
		SELECT
			id,
			database_name, file_name, size,
			created_at, downloaded_at, delete_after, deleted_at
		FROM archives
		WHERE downloaded_at IS NULL
			AND created_at < ?
			AND deleted_at IS NULL
		ORDER BY created_at
	`

	archiveSelectByFileName = `
		SELECT
			id,
			database_name, file_name, size,
			created_at, downloaded_at, delete_after, deleted_at
		FROM archives
		WHERE file_name = ?
	`
)

type ArchiveRepository struct {
	db *sqlx.DB
}

func NewArchiveRepository(db *sqlx.DB) *ArchiveRepository {
	return &ArchiveRepository{
		db: db,
	}
}

func (r *ArchiveRepository) Create(ctx context.Context, archive domain.Archive) (domain.Archive, error) {
	res, err := r.db.ExecContext(
		ctx,
		archiveInsertQuery,
		archive.Database, archive.FileName, archive.Size,
		archive.CreatedAt.UTC(), utc(archive.DownloadedAt), utc(archive.DeleteAfter), utc(archive.DeletedAt),
	)
	if err != nil {
		return archive, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return archive, err
	}

	archive.Id = id

	return archive, nil
}

func (r *ArchiveRepository) ScheduleDeletion(ctx context.Context, fileName string, downloadedAt, deleteAfter time.Time) error {
	_, err := r.db.ExecContext(
		ctx,
		archiveScheduleDeletionQuery,
		fileName, downloadedAt.UTC(), downloadedAt.UTC(), deleteAfter.UTC(),
	)

	return err
}

func (r *ArchiveRepository) MarkDeleted(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, archiveMarkDeletedQuery, at.UTC(), id)

	return err
}

func (r *ArchiveRepository) FindDueForDeletion(ctx context.Context, now time.Time) ([]domain.Archive, error) {
	var archives []domain.Archive

	err := r.db.SelectContext(ctx, &archives, archiveSelectDueForDeletion, now.UTC())
	if err != nil {
		return nil, err
	}

	return archives, nil
}

func (r *ArchiveRepository) FindNotDownloadedBefore(ctx context.Context, t time.Time) ([]domain.Archive, error) {
	var archives []domain.Archive

	err := r.db.SelectContext(ctx, &archives, archiveSelectNotDownloadedBefore, t.UTC())
	if err != nil {
		return nil, err
	}

	return archives, nil
}

func (r *ArchiveRepository) FindByFileName(ctx context.Context, fileName string) (domain.Archive, error) {
	var archive domain.Archive

	err := r.db.GetContext(ctx, &archive, archiveSelectByFileName, fileName)

	return archive, err
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	u := t.UTC()
	return &u
}
