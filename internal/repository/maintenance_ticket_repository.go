package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/persistence"
)

// TicketFilter captures list query parameters shared by both ticket kinds.
type TicketFilter struct {
	EquipmentID *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	AssignedTo  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// MaintenanceTicketRepository encapsulates maintenance ticket persistence.
// Transition applies an optimistic status update so concurrent transitions on
// the same ticket resolve to exactly one winner.
type MaintenanceTicketRepository interface {
	Create(ctx context.Context, ticket *domain.MaintenanceTicket) error
	Update(ctx context.Context, ticket *domain.MaintenanceTicket) error
	Transition(ctx context.Context, ticket *domain.MaintenanceTicket, expected domain.TicketStatus) error
	GetByID(ctx context.Context, id string) (*domain.MaintenanceTicket, error)
	GetByNumber(ctx context.Context, number string) (*domain.MaintenanceTicket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.MaintenanceTicket, error)
	Deactivate(ctx context.Context, id string) error
}

type maintenanceTicketRepository struct {
	pool *pgxpool.Pool
}

// NewMaintenanceTicketRepository instantiates repository.
func NewMaintenanceTicketRepository(pool *pgxpool.Pool) MaintenanceTicketRepository {
	return &maintenanceTicketRepository{pool: pool}
}

const maintenanceTicketColumns = `id, ticket_number, equipment_id, maintenance_type,
	status, priority, description, requested_by, assigned_to, approved_by, approved_date,
	scheduled_date, actual_start_date, actual_end_date, tasks, materials_used, costs,
	operating_hours_at_completion, notes, is_active, created_at, updated_at`

func (r *maintenanceTicketRepository) Create(ctx context.Context, ticket *domain.MaintenanceTicket) error {
	return persistence.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := persistence.QuerierFrom(ctx, r.pool)

		number, err := nextDocumentNumber(ctx, q, "maintenance_tickets", "ticket_number", "MT", time.Now())
		if err != nil {
			return err
		}
		ticket.TicketNumber = number

		tasks, materials, costs, err := marshalTicketDocs(ticket.Tasks, ticket.MaterialsUsed, ticket.Costs)
		if err != nil {
			return err
		}

		const query = `
            INSERT INTO maintenance_tickets (ticket_number, equipment_id, maintenance_type,
                status, priority, description, requested_by, scheduled_date, tasks,
                materials_used, costs, notes)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
            RETURNING id, is_active, created_at, updated_at`

		return q.QueryRow(ctx, query,
			ticket.TicketNumber,
			ticket.EquipmentID,
			ticket.MaintenanceType,
			ticket.Status,
			ticket.Priority,
			ticket.Description,
			ticket.RequestedBy,
			ticket.ScheduledDate,
			tasks,
			materials,
			costs,
			ticket.Notes,
		).Scan(&ticket.ID, &ticket.IsActive, &ticket.CreatedAt, &ticket.UpdatedAt)
	})
}

func (r *maintenanceTicketRepository) Update(ctx context.Context, ticket *domain.MaintenanceTicket) error {
	cmd, err := r.exec(ctx, ticket, nil)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *maintenanceTicketRepository) Transition(ctx context.Context, ticket *domain.MaintenanceTicket, expected domain.TicketStatus) error {
	cmd, err := r.exec(ctx, ticket, &expected)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, ticket.ID); getErr != nil {
			return getErr
		}
		return ErrConflict
	}
	return nil
}

// exec writes the full mutable state of a ticket. When expected is non-nil the
// write only succeeds if the stored status still matches it.
func (r *maintenanceTicketRepository) exec(ctx context.Context, ticket *domain.MaintenanceTicket, expected *domain.TicketStatus) (cmd pgconn.CommandTag, err error) {
	tasks, materials, costs, err := marshalTicketDocs(ticket.Tasks, ticket.MaterialsUsed, ticket.Costs)
	if err != nil {
		return cmd, err
	}

	query := `
        UPDATE maintenance_tickets SET status=$2, priority=$3, description=$4,
            assigned_to=$5, approved_by=$6, approved_date=$7, scheduled_date=$8,
            actual_start_date=$9, actual_end_date=$10, tasks=$11, materials_used=$12,
            costs=$13, operating_hours_at_completion=$14, notes=$15, updated_at=NOW()
        WHERE id=$1 AND is_active`
	args := []any{
		ticket.ID,
		ticket.Status,
		ticket.Priority,
		ticket.Description,
		ticket.AssignedTo,
		ticket.ApprovedBy,
		ticket.ApprovedDate,
		ticket.ScheduledDate,
		ticket.ActualStartDate,
		ticket.ActualEndDate,
		tasks,
		materials,
		costs,
		ticket.OperatingHoursAtCompletion,
		ticket.Notes,
	}
	if expected != nil {
		query += ` AND status=$16`
		args = append(args, *expected)
	}
	return persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query, args...)
}

func (r *maintenanceTicketRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceTicket, error) {
	query := `SELECT ` + maintenanceTicketColumns + ` FROM maintenance_tickets WHERE id=$1 AND is_active`
	return r.fetchSingle(ctx, query, id)
}

func (r *maintenanceTicketRepository) GetByNumber(ctx context.Context, number string) (*domain.MaintenanceTicket, error) {
	query := `SELECT ` + maintenanceTicketColumns + ` FROM maintenance_tickets WHERE ticket_number=$1 AND is_active`
	return r.fetchSingle(ctx, query, number)
}

func (r *maintenanceTicketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.MaintenanceTicket, error) {
	row := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, arg)
	ticket, err := scanMaintenanceTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (r *maintenanceTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.MaintenanceTicket, error) {
	query, args, err := buildTicketListQuery("maintenance_tickets", maintenanceTicketColumns, filter)
	if err != nil {
		return nil, err
	}
	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MaintenanceTicket
	for rows.Next() {
		ticket, err := scanMaintenanceTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *maintenanceTicketRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE maintenance_tickets SET is_active=FALSE, updated_at=NOW() WHERE id=$1 AND is_active`

	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMaintenanceTicket(row pgx.Row) (*domain.MaintenanceTicket, error) {
	var (
		ticket    domain.MaintenanceTicket
		tasks     []byte
		materials []byte
		costs     []byte
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.EquipmentID,
		&ticket.MaintenanceType,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Description,
		&ticket.RequestedBy,
		&ticket.AssignedTo,
		&ticket.ApprovedBy,
		&ticket.ApprovedDate,
		&ticket.ScheduledDate,
		&ticket.ActualStartDate,
		&ticket.ActualEndDate,
		&tasks,
		&materials,
		&costs,
		&ticket.OperatingHoursAtCompletion,
		&ticket.Notes,
		&ticket.IsActive,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalTicketDocs(tasks, materials, costs, &ticket.Tasks, &ticket.MaterialsUsed, &ticket.Costs); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func buildTicketListQuery(table, columns string, filter TicketFilter) (string, []any, error) {
	qb := psql.Select(columns).From(table).Where(squirrel.Eq{"is_active": true})
	if filter.EquipmentID != nil {
		qb = qb.Where(squirrel.Eq{"equipment_id": *filter.EquipmentID})
	}
	if len(filter.Statuses) > 0 {
		qb = qb.Where(squirrel.Eq{"status": filter.Statuses})
	}
	if len(filter.Priorities) > 0 {
		qb = qb.Where(squirrel.Eq{"priority": filter.Priorities})
	}
	if filter.AssignedTo != nil {
		qb = qb.Where(squirrel.Eq{"assigned_to": *filter.AssignedTo})
	}
	if filter.CreatedFrom != nil {
		qb = qb.Where(squirrel.GtOrEq{"created_at": *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		qb = qb.Where(squirrel.LtOrEq{"created_at": *filter.CreatedTo})
	}
	qb = qb.OrderBy("created_at DESC").Limit(uint64(normalizeLimit(filter.Limit))).Offset(uint64(normalizeOffset(filter.Offset)))
	return qb.ToSql()
}

func marshalTicketDocs(tasks []domain.Task, materials []domain.MaterialUsage, costs domain.Costs) ([]byte, []byte, []byte, error) {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	if materials == nil {
		materials = []domain.MaterialUsage{}
	}
	tasksDoc, err := json.Marshal(tasks)
	if err != nil {
		return nil, nil, nil, err
	}
	materialsDoc, err := json.Marshal(materials)
	if err != nil {
		return nil, nil, nil, err
	}
	costsDoc, err := json.Marshal(costs)
	if err != nil {
		return nil, nil, nil, err
	}
	return tasksDoc, materialsDoc, costsDoc, nil
}

func unmarshalTicketDocs(tasks, materials, costs []byte, outTasks *[]domain.Task, outMaterials *[]domain.MaterialUsage, outCosts *domain.Costs) error {
	if len(tasks) > 0 {
		if err := json.Unmarshal(tasks, outTasks); err != nil {
			return err
		}
	}
	if len(materials) > 0 {
		if err := json.Unmarshal(materials, outMaterials); err != nil {
			return err
		}
	}
	if len(costs) > 0 {
		if err := json.Unmarshal(costs, outCosts); err != nil {
			return err
		}
	}
	return nil
}
