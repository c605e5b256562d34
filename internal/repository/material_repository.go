package repository

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/persistence"
)

// MaterialFilter captures list query parameters.
type MaterialFilter struct {
	Category      *string
	BelowMinStock bool
	SearchTerm    *string
	Limit         int
	Offset        int
}

// MaterialRepository encapsulates spare-part persistence. Stock levels are
// mutated only through the inventory ledger, never directly.
type MaterialRepository interface {
	Create(ctx context.Context, material *domain.Material) error
	Update(ctx context.Context, material *domain.Material) error
	GetByID(ctx context.Context, id string) (*domain.Material, error)
	GetByCode(ctx context.Context, code string) (*domain.Material, error)
	List(ctx context.Context, filter MaterialFilter) ([]domain.Material, error)
	Deactivate(ctx context.Context, id string) error
}

type materialRepository struct {
	pool *pgxpool.Pool
}

// NewMaterialRepository instantiates repository.
func NewMaterialRepository(pool *pgxpool.Pool) MaterialRepository {
	return &materialRepository{pool: pool}
}

const materialColumns = `id, code, name, category, unit, current_stock,
	min_stock_level, max_stock_level, unit_price, is_active, created_at, updated_at`

func (r *materialRepository) Create(ctx context.Context, material *domain.Material) error {
	const query = `
        INSERT INTO materials (code, name, category, unit, current_stock,
            min_stock_level, max_stock_level, unit_price)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, is_active, created_at, updated_at`

	err := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query,
		material.Code,
		material.Name,
		material.Category,
		material.Unit,
		material.CurrentStock,
		material.MinStockLevel,
		material.MaxStockLevel,
		material.UnitPrice,
	).Scan(&material.ID, &material.IsActive, &material.CreatedAt, &material.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	return err
}

func (r *materialRepository) Update(ctx context.Context, material *domain.Material) error {
	const query = `
        UPDATE materials SET code=$1, name=$2, category=$3, unit=$4,
            min_stock_level=$5, max_stock_level=$6, unit_price=$7, updated_at=NOW()
        WHERE id=$8 AND is_active`

	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query,
		material.Code,
		material.Name,
		material.Category,
		material.Unit,
		material.MinStockLevel,
		material.MaxStockLevel,
		material.UnitPrice,
		material.ID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *materialRepository) GetByID(ctx context.Context, id string) (*domain.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE id=$1 AND is_active`
	return r.fetchSingle(ctx, query, id)
}

func (r *materialRepository) GetByCode(ctx context.Context, code string) (*domain.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE code=$1 AND is_active`
	return r.fetchSingle(ctx, query, code)
}

func (r *materialRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Material, error) {
	row := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, arg)
	material, err := scanMaterial(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return material, nil
}

func (r *materialRepository) List(ctx context.Context, filter MaterialFilter) ([]domain.Material, error) {
	qb := psql.Select(materialColumns).From("materials").Where(squirrel.Eq{"is_active": true})
	if filter.Category != nil && *filter.Category != "" {
		qb = qb.Where(squirrel.Eq{"category": *filter.Category})
	}
	if filter.BelowMinStock {
		qb = qb.Where("current_stock < min_stock_level")
	}
	if filter.SearchTerm != nil && *filter.SearchTerm != "" {
		search := "%" + *filter.SearchTerm + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"code": search},
			squirrel.ILike{"name": search},
		})
	}
	qb = qb.OrderBy("code ASC").Limit(uint64(normalizeLimit(filter.Limit))).Offset(uint64(normalizeOffset(filter.Offset)))

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Material
	for rows.Next() {
		material, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *material)
	}
	return result, rows.Err()
}

func (r *materialRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE materials SET is_active=FALSE, updated_at=NOW() WHERE id=$1 AND is_active`

	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMaterial(row pgx.Row) (*domain.Material, error) {
	var material domain.Material
	if err := row.Scan(
		&material.ID,
		&material.Code,
		&material.Name,
		&material.Category,
		&material.Unit,
		&material.CurrentStock,
		&material.MinStockLevel,
		&material.MaxStockLevel,
		&material.UnitPrice,
		&material.IsActive,
		&material.CreatedAt,
		&material.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &material, nil
}
