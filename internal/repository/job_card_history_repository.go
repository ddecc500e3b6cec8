package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/jobcard-service/internal/domain"
)

// JobCardHistoryRepository stores audit entries.
type JobCardHistoryRepository interface {
	Create(ctx context.Context, history *domain.JobCardHistory) error
	ListByJobCard(ctx context.Context, jobCardID string) ([]domain.JobCardHistory, error)
}

type jobCardHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewJobCardHistoryRepository builds repository.
func NewJobCardHistoryRepository(pool *pgxpool.Pool) JobCardHistoryRepository {
	return &jobCardHistoryRepository{pool: pool}
}

func (r *jobCardHistoryRepository) Create(ctx context.Context, history *domain.JobCardHistory) error {
	const query = `
        INSERT INTO job_card_history (job_card_id, changed_by_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		history.JobCardID,
		history.ChangedByID,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *jobCardHistoryRepository) ListByJobCard(ctx context.Context, jobCardID string) ([]domain.JobCardHistory, error) {
	const query = `
        SELECT id, job_card_id, changed_by_id, change_type, old_value, new_value, created_at
        FROM job_card_history WHERE job_card_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, jobCardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.JobCardHistory
	for rows.Next() {
		var history domain.JobCardHistory
		if err := rows.Scan(
			&history.ID,
			&history.JobCardID,
			&history.ChangedByID,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
