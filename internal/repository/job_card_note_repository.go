package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/jobcard-service/internal/domain"
)

// JobCardNoteRepository manages the note log on job cards.
type JobCardNoteRepository interface {
	Create(ctx context.Context, note *domain.JobCardNote) error
	ListByJobCard(ctx context.Context, jobCardID string) ([]domain.JobCardNote, error)
}

type jobCardNoteRepository struct {
	pool *pgxpool.Pool
}

// NewJobCardNoteRepository builds repository.
func NewJobCardNoteRepository(pool *pgxpool.Pool) JobCardNoteRepository {
	return &jobCardNoteRepository{pool: pool}
}

func (r *jobCardNoteRepository) Create(ctx context.Context, note *domain.JobCardNote) error {
	const query = `
        INSERT INTO job_card_notes (job_card_id, author_id, note_type, body)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		note.JobCardID,
		note.AuthorID,
		note.NoteType,
		note.Body,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *jobCardNoteRepository) ListByJobCard(ctx context.Context, jobCardID string) ([]domain.JobCardNote, error) {
	const query = `
        SELECT id, job_card_id, author_id, note_type, body, created_at
        FROM job_card_notes WHERE job_card_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, jobCardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.JobCardNote
	for rows.Next() {
		var note domain.JobCardNote
		if err := rows.Scan(
			&note.ID,
			&note.JobCardID,
			&note.AuthorID,
			&note.NoteType,
			&note.Body,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
