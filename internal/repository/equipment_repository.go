package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/persistence"
)

// EquipmentFilter captures list query parameters.
type EquipmentFilter struct {
	Statuses   []domain.EquipmentStatus
	Types      []domain.EquipmentType
	SearchTerm *string
	Limit      int
	Offset     int
}

// EquipmentRepository encapsulates equipment persistence.
type EquipmentRepository interface {
	Create(ctx context.Context, equipment *domain.Equipment) error
	Update(ctx context.Context, equipment *domain.Equipment) error
	GetByID(ctx context.Context, id string) (*domain.Equipment, error)
	GetByCode(ctx context.Context, code string) (*domain.Equipment, error)
	List(ctx context.Context, filter EquipmentFilter) ([]domain.Equipment, error)
	// UpdateOperatingHours applies the new counter value with a conditional
	// update that only succeeds when the counter does not regress.
	UpdateOperatingHours(ctx context.Context, id string, hours float64) (*domain.Equipment, error)
	// TransitionStatus flips equipment status iff it currently equals from;
	// ErrConflict otherwise. This is how tickets claim and release a unit.
	TransitionStatus(ctx context.Context, id string, from, to domain.EquipmentStatus) error
	SetMaintenanceSchedule(ctx context.Context, id string, schedule domain.MaintenanceSchedule) error
	ListDue(ctx context.Context, now time.Time) ([]domain.Equipment, error)
	Deactivate(ctx context.Context, id string) error
}

type equipmentRepository struct {
	pool *pgxpool.Pool
}

// NewEquipmentRepository instantiates repository.
func NewEquipmentRepository(pool *pgxpool.Pool) EquipmentRepository {
	return &equipmentRepository{pool: pool}
}

const equipmentColumns = `id, code, name, type, status, operating_hours,
	last_maintenance_hours, next_maintenance_hours, next_maintenance_date,
	location, is_active, created_at, updated_at`

func (r *equipmentRepository) Create(ctx context.Context, equipment *domain.Equipment) error {
	const query = `
        INSERT INTO equipment (code, name, type, status, operating_hours,
            last_maintenance_hours, next_maintenance_hours, next_maintenance_date, location)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, is_active, created_at, updated_at`

	err := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query,
		equipment.Code,
		equipment.Name,
		equipment.Type,
		equipment.Status,
		equipment.OperatingHours,
		equipment.Maintenance.LastMaintenanceHours,
		equipment.Maintenance.NextMaintenanceHours,
		equipment.Maintenance.NextMaintenanceDate,
		equipment.Location,
	).Scan(&equipment.ID, &equipment.IsActive, &equipment.CreatedAt, &equipment.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	return err
}

func (r *equipmentRepository) Update(ctx context.Context, equipment *domain.Equipment) error {
	const query = `
        UPDATE equipment SET code=$1, name=$2, type=$3, status=$4, location=$5, updated_at=NOW()
        WHERE id=$6 AND is_active`

	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query,
		equipment.Code,
		equipment.Name,
		equipment.Type,
		equipment.Status,
		equipment.Location,
		equipment.ID,
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

func (r *equipmentRepository) GetByID(ctx context.Context, id string) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id=$1 AND is_active`
	return r.fetchSingle(ctx, query, id)
}

func (r *equipmentRepository) GetByCode(ctx context.Context, code string) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE code=$1 AND is_active`
	return r.fetchSingle(ctx, query, code)
}

func (r *equipmentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Equipment, error) {
	row := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, arg)
	equipment, err := scanEquipment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return equipment, nil
}

func (r *equipmentRepository) List(ctx context.Context, filter EquipmentFilter) ([]domain.Equipment, error) {
	qb := psql.Select(equipmentColumns).From("equipment").Where(squirrel.Eq{"is_active": true})
	if len(filter.Statuses) > 0 {
		qb = qb.Where(squirrel.Eq{"status": filter.Statuses})
	}
	if len(filter.Types) > 0 {
		qb = qb.Where(squirrel.Eq{"type": filter.Types})
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
	return scanEquipmentRows(rows)
}

func (r *equipmentRepository) UpdateOperatingHours(ctx context.Context, id string, hours float64) (*domain.Equipment, error) {
	query := `
        UPDATE equipment SET operating_hours=$2, updated_at=NOW()
        WHERE id=$1 AND is_active AND operating_hours <= $2
        RETURNING ` + equipmentColumns

	row := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, id, hours)
	equipment, err := scanEquipment(row)
	if err == nil {
		return equipment, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	// Zero rows: distinguish a missing unit from a regressing counter.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrOperatingHoursRegression
}

func (r *equipmentRepository) TransitionStatus(ctx context.Context, id string, from, to domain.EquipmentStatus) error {
	const query = `
        UPDATE equipment SET status=$3, updated_at=NOW()
        WHERE id=$1 AND is_active AND status=$2`

	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query, id, from, to)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrConflict
	}
	return nil
}

func (r *equipmentRepository) SetMaintenanceSchedule(ctx context.Context, id string, schedule domain.MaintenanceSchedule) error {
	const query = `
        UPDATE equipment SET last_maintenance_hours=$2, next_maintenance_hours=$3,
            next_maintenance_date=$4, updated_at=NOW()
        WHERE id=$1 AND is_active`

	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query,
		id,
		schedule.LastMaintenanceHours,
		schedule.NextMaintenanceHours,
		schedule.NextMaintenanceDate,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *equipmentRepository) ListDue(ctx context.Context, now time.Time) ([]domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + `
        FROM equipment
        WHERE is_active AND status NOT IN ('SCRAPPED','INACTIVE')
          AND next_maintenance_hours > 0
          AND (operating_hours >= next_maintenance_hours
               OR (next_maintenance_date IS NOT NULL AND next_maintenance_date <= $1))
        ORDER BY operating_hours - next_maintenance_hours DESC`

	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEquipmentRows(rows)
}

func (r *equipmentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `
        UPDATE equipment SET is_active=FALSE, status='INACTIVE', updated_at=NOW()
        WHERE id=$1 AND is_active`

	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEquipment(row pgx.Row) (*domain.Equipment, error) {
	var equipment domain.Equipment
	if err := row.Scan(
		&equipment.ID,
		&equipment.Code,
		&equipment.Name,
		&equipment.Type,
		&equipment.Status,
		&equipment.OperatingHours,
		&equipment.Maintenance.LastMaintenanceHours,
		&equipment.Maintenance.NextMaintenanceHours,
		&equipment.Maintenance.NextMaintenanceDate,
		&equipment.Location,
		&equipment.IsActive,
		&equipment.CreatedAt,
		&equipment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &equipment, nil
}

func scanEquipmentRows(rows pgx.Rows) ([]domain.Equipment, error) {
	var result []domain.Equipment
	for rows.Next() {
		equipment, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *equipment)
	}
	return result, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
