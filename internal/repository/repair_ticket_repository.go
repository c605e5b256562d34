package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/persistence"
)

// RepairTicketRepository encapsulates repair ticket persistence.
type RepairTicketRepository interface {
	Create(ctx context.Context, ticket *domain.RepairTicket) error
	Update(ctx context.Context, ticket *domain.RepairTicket) error
	Transition(ctx context.Context, ticket *domain.RepairTicket, expected domain.TicketStatus) error
	GetByID(ctx context.Context, id string) (*domain.RepairTicket, error)
	GetByNumber(ctx context.Context, number string) (*domain.RepairTicket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.RepairTicket, error)
	Deactivate(ctx context.Context, id string) error
}

type repairTicketRepository struct {
	pool *pgxpool.Pool
}

// NewRepairTicketRepository instantiates repository.
func NewRepairTicketRepository(pool *pgxpool.Pool) RepairTicketRepository {
	return &repairTicketRepository{pool: pool}
}

const repairTicketColumns = `id, ticket_number, equipment_id, repair_type, status, priority,
	failure_description, root_cause, diagnosis, solution, requested_by, assigned_to,
	approved_by, approved_date, scheduled_date, actual_start_date, actual_end_date,
	tasks, materials_used, external_services, costs, downtime,
	operating_hours_at_completion, notes, is_active, created_at, updated_at`

func (r *repairTicketRepository) Create(ctx context.Context, ticket *domain.RepairTicket) error {
	return persistence.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := persistence.QuerierFrom(ctx, r.pool)

		number, err := nextDocumentNumber(ctx, q, "repair_tickets", "ticket_number", "RT", time.Now())
		if err != nil {
			return err
		}
		ticket.TicketNumber = number

		tasks, materials, costs, err := marshalTicketDocs(ticket.Tasks, ticket.MaterialsUsed, ticket.Costs)
		if err != nil {
			return err
		}
		services, downtime, err := marshalRepairDocs(ticket.ExternalServices, ticket.Downtime)
		if err != nil {
			return err
		}

		const query = `
            INSERT INTO repair_tickets (ticket_number, equipment_id, repair_type, status,
                priority, failure_description, requested_by, scheduled_date, tasks,
                materials_used, external_services, costs, downtime, notes)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
            RETURNING id, is_active, created_at, updated_at`

		return q.QueryRow(ctx, query,
			ticket.TicketNumber,
			ticket.EquipmentID,
			ticket.RepairType,
			ticket.Status,
			ticket.Priority,
			ticket.FailureDescription,
			ticket.RequestedBy,
			ticket.ScheduledDate,
			tasks,
			materials,
			services,
			costs,
			downtime,
			ticket.Notes,
		).Scan(&ticket.ID, &ticket.IsActive, &ticket.CreatedAt, &ticket.UpdatedAt)
	})
}

func (r *repairTicketRepository) Update(ctx context.Context, ticket *domain.RepairTicket) error {
	cmd, err := r.exec(ctx, ticket, nil)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repairTicketRepository) Transition(ctx context.Context, ticket *domain.RepairTicket, expected domain.TicketStatus) error {
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

func (r *repairTicketRepository) exec(ctx context.Context, ticket *domain.RepairTicket, expected *domain.TicketStatus) (cmd pgconn.CommandTag, err error) {
	tasks, materials, costs, err := marshalTicketDocs(ticket.Tasks, ticket.MaterialsUsed, ticket.Costs)
	if err != nil {
		return cmd, err
	}
	services, downtime, err := marshalRepairDocs(ticket.ExternalServices, ticket.Downtime)
	if err != nil {
		return cmd, err
	}

	query := `
        UPDATE repair_tickets SET status=$2, priority=$3, failure_description=$4,
            root_cause=$5, diagnosis=$6, solution=$7, assigned_to=$8, approved_by=$9,
            approved_date=$10, scheduled_date=$11, actual_start_date=$12,
            actual_end_date=$13, tasks=$14, materials_used=$15, external_services=$16,
            costs=$17, downtime=$18, operating_hours_at_completion=$19, notes=$20,
            updated_at=NOW()
        WHERE id=$1 AND is_active`
	args := []any{
		ticket.ID,
		ticket.Status,
		ticket.Priority,
		ticket.FailureDescription,
		ticket.RootCause,
		ticket.Diagnosis,
		ticket.Solution,
		ticket.AssignedTo,
		ticket.ApprovedBy,
		ticket.ApprovedDate,
		ticket.ScheduledDate,
		ticket.ActualStartDate,
		ticket.ActualEndDate,
		tasks,
		materials,
		services,
		costs,
		downtime,
		ticket.OperatingHoursAtCompletion,
		ticket.Notes,
	}
	if expected != nil {
		query += ` AND status=$21`
		args = append(args, *expected)
	}
	return persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query, args...)
}

func (r *repairTicketRepository) GetByID(ctx context.Context, id string) (*domain.RepairTicket, error) {
	query := `SELECT ` + repairTicketColumns + ` FROM repair_tickets WHERE id=$1 AND is_active`
	return r.fetchSingle(ctx, query, id)
}

func (r *repairTicketRepository) GetByNumber(ctx context.Context, number string) (*domain.RepairTicket, error) {
	query := `SELECT ` + repairTicketColumns + ` FROM repair_tickets WHERE ticket_number=$1 AND is_active`
	return r.fetchSingle(ctx, query, number)
}

func (r *repairTicketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.RepairTicket, error) {
	row := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, arg)
	ticket, err := scanRepairTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (r *repairTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.RepairTicket, error) {
	query, args, err := buildTicketListQuery("repair_tickets", repairTicketColumns, filter)
	if err != nil {
		return nil, err
	}
	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RepairTicket
	for rows.Next() {
		ticket, err := scanRepairTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *repairTicketRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE repair_tickets SET is_active=FALSE, updated_at=NOW() WHERE id=$1 AND is_active`

	cmd, err := persistence.QuerierFrom(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRepairTicket(row pgx.Row) (*domain.RepairTicket, error) {
	var (
		ticket    domain.RepairTicket
		tasks     []byte
		materials []byte
		services  []byte
		costs     []byte
		downtime  []byte
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.EquipmentID,
		&ticket.RepairType,
		&ticket.Status,
		&ticket.Priority,
		&ticket.FailureDescription,
		&ticket.RootCause,
		&ticket.Diagnosis,
		&ticket.Solution,
		&ticket.RequestedBy,
		&ticket.AssignedTo,
		&ticket.ApprovedBy,
		&ticket.ApprovedDate,
		&ticket.ScheduledDate,
		&ticket.ActualStartDate,
		&ticket.ActualEndDate,
		&tasks,
		&materials,
		&services,
		&costs,
		&downtime,
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
	if len(services) > 0 {
		if err := json.Unmarshal(services, &ticket.ExternalServices); err != nil {
			return nil, err
		}
	}
	if len(downtime) > 0 {
		var d domain.Downtime
		if err := json.Unmarshal(downtime, &d); err != nil {
			return nil, err
		}
		ticket.Downtime = &d
	}
	return &ticket, nil
}

func marshalRepairDocs(services []domain.ExternalService, downtime *domain.Downtime) ([]byte, []byte, error) {
	if services == nil {
		services = []domain.ExternalService{}
	}
	servicesDoc, err := json.Marshal(services)
	if err != nil {
		return nil, nil, err
	}
	var downtimeDoc []byte
	if downtime != nil {
		downtimeDoc, err = json.Marshal(downtime)
		if err != nil {
			return nil, nil, err
		}
	}
	return servicesDoc, downtimeDoc, nil
}
