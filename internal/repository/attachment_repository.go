package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/jobcard-service/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.AttachmentReference) error
	ListByNotes(ctx context.Context, noteIDs []string) (map[string][]domain.AttachmentReference, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.AttachmentReference) error {
	const query = `
        INSERT INTO attachment_references (job_card_note_id, storage_key, file_name, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		attachment.JobCardNoteID,
		attachment.StorageKey,
		attachment.FileName,
		attachment.MimeType,
		attachment.SizeBytes,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

// ListByNotes fetches attachment metadata for a batch of notes in one query,
// grouped by note ID. Notes without attachments get no map entry.
func (r *attachmentRepository) ListByNotes(ctx context.Context, noteIDs []string) (map[string][]domain.AttachmentReference, error) {
	grouped := make(map[string][]domain.AttachmentReference)
	if len(noteIDs) == 0 {
		return grouped, nil
	}

	const query = `
        SELECT id, job_card_note_id, storage_key, file_name, mime_type, size_bytes, created_at
        FROM attachment_references
        WHERE job_card_note_id = ANY($1)
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, noteIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var attachment domain.AttachmentReference
		if err := rows.Scan(
			&attachment.ID,
			&attachment.JobCardNoteID,
			&attachment.StorageKey,
			&attachment.FileName,
			&attachment.MimeType,
			&attachment.SizeBytes,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		grouped[attachment.JobCardNoteID] = append(grouped[attachment.JobCardNoteID], attachment)
	}
	return grouped, rows.Err()
}
