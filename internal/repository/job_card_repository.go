package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/jobcard-service/internal/domain"
)

// JobCardFilter captures search parameters for job card listings.
type JobCardFilter struct {
	CreatedByID  *string
	DepartmentID *string
	SiteID       *string
	AssigneeID   *string
	Statuses     []domain.JobCardStatus
	Priorities   []domain.JobCardPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	DueFrom      *time.Time
	DueTo        *time.Time
	Limit        int
	Offset       int
}

// JobCardRepository encapsulates job card persistence.
type JobCardRepository interface {
	Create(ctx context.Context, card *domain.JobCard) error
	Update(ctx context.Context, card *domain.JobCard) error
	GetByID(ctx context.Context, id string) (*domain.JobCard, error)
	GetByReference(ctx context.Context, reference string) (*domain.JobCard, error)
	ListWithFilter(ctx context.Context, filter JobCardFilter) ([]domain.JobCard, error)
	ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]domain.JobCard, error)
	CountOpenByAssignee(ctx context.Context, departmentID string) (map[string]int, error)
}

type jobCardRepository struct {
	pool *pgxpool.Pool
}

// NewJobCardRepository instantiates repository.
func NewJobCardRepository(pool *pgxpool.Pool) JobCardRepository {
	return &jobCardRepository{pool: pool}
}

func (r *jobCardRepository) Create(ctx context.Context, card *domain.JobCard) error {
	const query = `
        INSERT INTO job_cards (reference, created_by_employee_id, department_id, site_id, assignee_employee_id, title, details, status, priority, tags, due_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		card.Reference,
		card.CreatedByID,
		card.DepartmentID,
		card.SiteID,
		card.AssigneeID,
		card.Title,
		card.Details,
		card.Status,
		card.Priority,
		card.Tags,
		card.DueAt,
	).Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
}

func (r *jobCardRepository) Update(ctx context.Context, card *domain.JobCard) error {
	const query = `
        UPDATE job_cards SET department_id=$1, site_id=$2, assignee_employee_id=$3, title=$4, details=$5,
            status=$6, priority=$7, tags=$8, due_at=$9, completed_at=$10, updated_at=NOW()
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		card.DepartmentID,
		card.SiteID,
		card.AssigneeID,
		card.Title,
		card.Details,
		card.Status,
		card.Priority,
		card.Tags,
		card.DueAt,
		card.CompletedAt,
		card.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *jobCardRepository) GetByID(ctx context.Context, id string) (*domain.JobCard, error) {
	const query = `
        SELECT id, reference, created_by_employee_id, department_id, site_id, assignee_employee_id,
               title, details, status, priority, tags, due_at, completed_at, created_at, updated_at
        FROM job_cards WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *jobCardRepository) GetByReference(ctx context.Context, reference string) (*domain.JobCard, error) {
	const query = `
        SELECT id, reference, created_by_employee_id, department_id, site_id, assignee_employee_id,
               title, details, status, priority, tags, due_at, completed_at, created_at, updated_at
        FROM job_cards WHERE reference=$1`
	return r.fetchSingle(ctx, query, reference)
}

func (r *jobCardRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.JobCard, error) {
	var card domain.JobCard
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&card.ID,
		&card.Reference,
		&card.CreatedByID,
		&card.DepartmentID,
		&card.SiteID,
		&card.AssigneeID,
		&card.Title,
		&card.Details,
		&card.Status,
		&card.Priority,
		&card.Tags,
		&card.DueAt,
		&card.CompletedAt,
		&card.CreatedAt,
		&card.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *jobCardRepository) ListWithFilter(ctx context.Context, filter JobCardFilter) ([]domain.JobCard, error) {
	base := `SELECT id, reference, created_by_employee_id, department_id, site_id, assignee_employee_id,
                    title, details, status, priority, tags, due_at, completed_at, created_at, updated_at
             FROM job_cards`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedByID != nil {
		args = append(args, *filter.CreatedByID)
		clauses = append(clauses, fmt.Sprintf("created_by_employee_id=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.SiteID != nil {
		args = append(args, *filter.SiteID)
		clauses = append(clauses, fmt.Sprintf("site_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_employee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.DueFrom != nil {
		args = append(args, *filter.DueFrom)
		clauses = append(clauses, fmt.Sprintf("due_at >= $%d", len(args)))
	}
	if filter.DueTo != nil {
		args = append(args, *filter.DueTo)
		clauses = append(clauses, fmt.Sprintf("due_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(details) LIKE %s OR LOWER(reference) LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobCards(rows)
}

func (r *jobCardRepository) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]domain.JobCard, error) {
	const query = `
        SELECT id, reference, created_by_employee_id, department_id, site_id, assignee_employee_id,
               title, details, status, priority, tags, due_at, completed_at, created_at, updated_at
        FROM job_cards
        WHERE due_at IS NOT NULL AND due_at <= $1 AND status IN ('OPEN','IN_PROGRESS','ON_HOLD')
        ORDER BY due_at ASC LIMIT $2`

	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, query, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobCards(rows)
}

func (r *jobCardRepository) CountOpenByAssignee(ctx context.Context, departmentID string) (map[string]int, error) {
	const query = `
        SELECT assignee_employee_id, COUNT(*)
        FROM job_cards
        WHERE department_id=$1 AND assignee_employee_id IS NOT NULL AND status IN ('OPEN','IN_PROGRESS','ON_HOLD')
        GROUP BY assignee_employee_id`

	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var assigneeID string
		var count int
		if err := rows.Scan(&assigneeID, &count); err != nil {
			return nil, err
		}
		counts[assigneeID] = count
	}
	return counts, rows.Err()
}

func scanJobCards(rows pgx.Rows) ([]domain.JobCard, error) {
	var result []domain.JobCard
	for rows.Next() {
		var card domain.JobCard
		if err := rows.Scan(
			&card.ID,
			&card.Reference,
			&card.CreatedByID,
			&card.DepartmentID,
			&card.SiteID,
			&card.AssigneeID,
			&card.Title,
			&card.Details,
			&card.Status,
			&card.Priority,
			&card.Tags,
			&card.DueAt,
			&card.CompletedAt,
			&card.CreatedAt,
			&card.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, card)
	}
	return result, rows.Err()
}
