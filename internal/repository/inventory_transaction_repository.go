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

// ConsumeInput describes one stock consumption.
type ConsumeInput struct {
	MaterialID  string
	Quantity    float64
	Ticket      *domain.TicketRef
	Reason      string
	PerformedBy string
}

// RestockInput describes one stock replenishment.
type RestockInput struct {
	MaterialID  string
	Quantity    float64
	Reason      string
	PerformedBy string
}

// TransactionFilter captures ledger list parameters.
type TransactionFilter struct {
	MaterialID *string
	Types      []domain.TransactionType
	TicketID   *string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// InventoryTransactionRepository owns material stock levels and the
// append-only ledger. Consume and Restock pair the stock mutation with the
// ledger insert inside one transaction; the stock check and decrement are a
// single conditional UPDATE, so concurrent consumptions can never jointly
// overdraw a material.
type InventoryTransactionRepository interface {
	Consume(ctx context.Context, input ConsumeInput) (*domain.InventoryTransaction, *domain.Material, error)
	Restock(ctx context.Context, input RestockInput) (*domain.InventoryTransaction, *domain.Material, error)
	// Reverse creates a new opposite-signed transaction referencing the
	// original; the original record is never mutated.
	Reverse(ctx context.Context, transactionID, reason, performedBy string) (*domain.InventoryTransaction, error)
	GetByID(ctx context.Context, id string) (*domain.InventoryTransaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]domain.InventoryTransaction, error)
}

type inventoryTransactionRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryTransactionRepository instantiates repository.
func NewInventoryTransactionRepository(pool *pgxpool.Pool) InventoryTransactionRepository {
	return &inventoryTransactionRepository{pool: pool}
}

const transactionColumns = `id, transaction_number, material_id, type, quantity,
	previous_stock, new_stock, unit_price, ticket_type, ticket_id,
	reversed_transaction_id, reason, performed_by, created_at`

func (r *inventoryTransactionRepository) Consume(ctx context.Context, input ConsumeInput) (*domain.InventoryTransaction, *domain.Material, error) {
	var (
		transaction *domain.InventoryTransaction
		material    *domain.Material
	)
	err := persistence.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := persistence.QuerierFrom(ctx, r.pool)

		// Check-and-decrement as one conditional UPDATE.
		decrement := `
            UPDATE materials SET current_stock = current_stock - $2, updated_at=NOW()
            WHERE id=$1 AND is_active AND current_stock >= $2
            RETURNING ` + materialColumns
		m, err := scanMaterial(q.QueryRow(ctx, decrement, input.MaterialID, input.Quantity))
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			var exists bool
			if checkErr := q.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM materials WHERE id=$1 AND is_active)`,
				input.MaterialID).Scan(&exists); checkErr != nil {
				return checkErr
			}
			if !exists {
				return ErrNotFound
			}
			return ErrInsufficientStock
		}
		material = m

		transaction = &domain.InventoryTransaction{
			MaterialID:    input.MaterialID,
			Type:          domain.TransactionTypeOutbound,
			Quantity:      -input.Quantity,
			PreviousStock: m.CurrentStock + input.Quantity,
			NewStock:      m.CurrentStock,
			UnitPrice:     m.UnitPrice,
			RelatedTicket: input.Ticket,
			Reason:        input.Reason,
			PerformedBy:   input.PerformedBy,
		}
		return r.insert(ctx, q, transaction)
	})
	if err != nil {
		return nil, nil, err
	}
	return transaction, material, nil
}

func (r *inventoryTransactionRepository) Restock(ctx context.Context, input RestockInput) (*domain.InventoryTransaction, *domain.Material, error) {
	var (
		transaction *domain.InventoryTransaction
		material    *domain.Material
	)
	err := persistence.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := persistence.QuerierFrom(ctx, r.pool)

		// MaxStockLevel is advisory; no ceiling check here.
		increment := `
            UPDATE materials SET current_stock = current_stock + $2, updated_at=NOW()
            WHERE id=$1 AND is_active
            RETURNING ` + materialColumns
		m, err := scanMaterial(q.QueryRow(ctx, increment, input.MaterialID, input.Quantity))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		material = m

		transaction = &domain.InventoryTransaction{
			MaterialID:    input.MaterialID,
			Type:          domain.TransactionTypeInbound,
			Quantity:      input.Quantity,
			PreviousStock: m.CurrentStock - input.Quantity,
			NewStock:      m.CurrentStock,
			UnitPrice:     m.UnitPrice,
			Reason:        input.Reason,
			PerformedBy:   input.PerformedBy,
		}
		return r.insert(ctx, q, transaction)
	})
	if err != nil {
		return nil, nil, err
	}
	return transaction, material, nil
}

func (r *inventoryTransactionRepository) Reverse(ctx context.Context, transactionID, reason, performedBy string) (*domain.InventoryTransaction, error) {
	var reversal *domain.InventoryTransaction
	err := persistence.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := persistence.QuerierFrom(ctx, r.pool)

		original, err := r.GetByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if original.ReversedTransactionID != nil {
			return ErrReversalOfReversal
		}

		delta := -original.Quantity
		var query string
		if delta < 0 {
			query = `
                UPDATE materials SET current_stock = current_stock + $2, updated_at=NOW()
                WHERE id=$1 AND is_active AND current_stock >= -$2
                RETURNING ` + materialColumns
		} else {
			query = `
                UPDATE materials SET current_stock = current_stock + $2, updated_at=NOW()
                WHERE id=$1 AND is_active
                RETURNING ` + materialColumns
		}
		m, err := scanMaterial(q.QueryRow(ctx, query, original.MaterialID, delta))
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			if delta < 0 {
				return ErrInsufficientStock
			}
			return ErrNotFound
		}

		txType := domain.TransactionTypeInbound
		if delta < 0 {
			txType = domain.TransactionTypeOutbound
		}
		reversal = &domain.InventoryTransaction{
			MaterialID:            original.MaterialID,
			Type:                  txType,
			Quantity:              delta,
			PreviousStock:         m.CurrentStock - delta,
			NewStock:              m.CurrentStock,
			UnitPrice:             original.UnitPrice,
			RelatedTicket:         original.RelatedTicket,
			ReversedTransactionID: &original.ID,
			Reason:                reason,
			PerformedBy:           performedBy,
		}
		return r.insert(ctx, q, reversal)
	})
	if err != nil {
		return nil, err
	}
	return reversal, nil
}

func (r *inventoryTransactionRepository) insert(ctx context.Context, q persistence.Querier, transaction *domain.InventoryTransaction) error {
	number, err := nextDocumentNumber(ctx, q, "inventory_transactions", "transaction_number", "TXN", time.Now())
	if err != nil {
		return err
	}
	transaction.TransactionNumber = number

	var ticketType, ticketID *string
	if transaction.RelatedTicket != nil {
		t := string(transaction.RelatedTicket.TicketType)
		ticketType, ticketID = &t, &transaction.RelatedTicket.TicketID
	}

	const query = `
        INSERT INTO inventory_transactions (transaction_number, material_id, type, quantity,
            previous_stock, new_stock, unit_price, ticket_type, ticket_id,
            reversed_transaction_id, reason, performed_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at`

	return q.QueryRow(ctx, query,
		transaction.TransactionNumber,
		transaction.MaterialID,
		transaction.Type,
		transaction.Quantity,
		transaction.PreviousStock,
		transaction.NewStock,
		transaction.UnitPrice,
		ticketType,
		ticketID,
		transaction.ReversedTransactionID,
		transaction.Reason,
		transaction.PerformedBy,
	).Scan(&transaction.ID, &transaction.CreatedAt)
}

func (r *inventoryTransactionRepository) GetByID(ctx context.Context, id string) (*domain.InventoryTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM inventory_transactions WHERE id=$1`
	row := persistence.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, id)
	transaction, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return transaction, nil
}

func (r *inventoryTransactionRepository) List(ctx context.Context, filter TransactionFilter) ([]domain.InventoryTransaction, error) {
	qb := psql.Select(transactionColumns).From("inventory_transactions")
	if filter.MaterialID != nil {
		qb = qb.Where(squirrel.Eq{"material_id": *filter.MaterialID})
	}
	if len(filter.Types) > 0 {
		qb = qb.Where(squirrel.Eq{"type": filter.Types})
	}
	if filter.TicketID != nil {
		qb = qb.Where(squirrel.Eq{"ticket_id": *filter.TicketID})
	}
	if filter.From != nil {
		qb = qb.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		qb = qb.Where(squirrel.LtOrEq{"created_at": *filter.To})
	}
	qb = qb.OrderBy("created_at DESC").Limit(uint64(normalizeLimit(filter.Limit))).Offset(uint64(normalizeOffset(filter.Offset)))

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := persistence.QuerierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.InventoryTransaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *transaction)
	}
	return result, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.InventoryTransaction, error) {
	var (
		transaction domain.InventoryTransaction
		ticketType  *string
		ticketID    *string
	)
	if err := row.Scan(
		&transaction.ID,
		&transaction.TransactionNumber,
		&transaction.MaterialID,
		&transaction.Type,
		&transaction.Quantity,
		&transaction.PreviousStock,
		&transaction.NewStock,
		&transaction.UnitPrice,
		&ticketType,
		&ticketID,
		&transaction.ReversedTransactionID,
		&transaction.Reason,
		&transaction.PerformedBy,
		&transaction.CreatedAt,
	); err != nil {
		return nil, err
	}
	if ticketType != nil && ticketID != nil {
		transaction.RelatedTicket = &domain.TicketRef{
			TicketType: domain.TicketType(*ticketType),
			TicketID:   *ticketID,
		}
	}
	return &transaction, nil
}
