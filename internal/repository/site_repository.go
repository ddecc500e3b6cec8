package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/jobcard-service/internal/domain"
)

// SiteRepository manages persistence for customer sites.
type SiteRepository interface {
	Create(ctx context.Context, site *domain.Site) error
	Update(ctx context.Context, site *domain.Site) error
	GetByID(ctx context.Context, id string) (*domain.Site, error)
	List(ctx context.Context, includeInactive bool) ([]domain.Site, error)
}

type siteRepository struct {
	pool *pgxpool.Pool
}

// NewSiteRepository constructs repository.
func NewSiteRepository(pool *pgxpool.Pool) SiteRepository {
	return &siteRepository{pool: pool}
}

func (r *siteRepository) Create(ctx context.Context, site *domain.Site) error {
	const query = `
        INSERT INTO sites (name, address, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		site.Name,
		site.Address,
		site.IsActive,
	).Scan(&site.ID, &site.CreatedAt, &site.UpdatedAt)
}

func (r *siteRepository) Update(ctx context.Context, site *domain.Site) error {
	const query = `
        UPDATE sites SET name=$1, address=$2, is_active=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		site.Name,
		site.Address,
		site.IsActive,
		site.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *siteRepository) GetByID(ctx context.Context, id string) (*domain.Site, error) {
	const query = `
        SELECT id, name, address, is_active, created_at, updated_at
        FROM sites WHERE id=$1`
	var site domain.Site
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&site.ID,
		&site.Name,
		&site.Address,
		&site.IsActive,
		&site.CreatedAt,
		&site.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *siteRepository) List(ctx context.Context, includeInactive bool) ([]domain.Site, error) {
	query := `
        SELECT id, name, address, is_active, created_at, updated_at
        FROM sites`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Site
	for rows.Next() {
		var site domain.Site
		if err := rows.Scan(&site.ID, &site.Name, &site.Address, &site.IsActive, &site.CreatedAt, &site.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, site)
	}
	return result, rows.Err()
}
