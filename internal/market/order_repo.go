package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/donasaurs/p2p-market/internal/postgres"
)

const orderCols = `id, listing_id, buyer_id, seller_id, agreed_price, status,
	escrow_reference, escrow_confirmed_at, version, created_at, updated_at`

type OrderRepo struct{ DB *pgxpool.Pool }

// StatusExtra carries optional columns set together with a status change.
type StatusExtra struct {
	EscrowReference string
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.ListingID, &o.BuyerID, &o.SellerID, &o.AgreedPrice,
		&o.Status, &o.EscrowReference, &o.EscrowConfirmedAt, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) Create(ctx context.Context, q postgres.DBTX, listingID, buyerID, sellerID string, agreedPrice decimal.Decimal) (*Order, error) {
	return scanOrder(q.QueryRow(ctx, `
		INSERT INTO orders (listing_id, buyer_id, seller_id, agreed_price, status)
		VALUES ($1, $2, $3, $4, 'CREATED')
		RETURNING `+orderCols,
		listingID, buyerID, sellerID, agreedPrice))
}

func (r *OrderRepo) FindByID(ctx context.Context, id string) (*Order, error) {
	return scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id = $1`, id))
}

// FindByIDForUpdate holds an exclusive row lock until the enclosing
// transaction ends, serializing concurrent transition attempts on one order.
func (r *OrderRepo) FindByIDForUpdate(ctx context.Context, q postgres.DBTX, id string) (*Order, error) {
	return scanOrder(q.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id = $1 FOR UPDATE`, id))
}

func (r *OrderRepo) FindByUserID(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, q postgres.DBTX, orderID string, status OrderStatus, extra *StatusExtra) (*Order, error) {
	if extra != nil && extra.EscrowReference != "" {
		return scanOrder(q.QueryRow(ctx, `
			UPDATE orders
			SET status = $2,
			    escrow_reference = $3,
			    escrow_confirmed_at = now(),
			    version = version + 1,
			    updated_at = now()
			WHERE id = $1
			RETURNING `+orderCols,
			orderID, status, extra.EscrowReference))
	}
	return scanOrder(q.QueryRow(ctx, `
		UPDATE orders
		SET status = $2, version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING `+orderCols,
		orderID, status))
}

func (r *OrderRepo) InsertTransition(ctx context.Context, q postgres.DBTX, orderID string, previous *OrderStatus, next OrderStatus, actorID string, metadata map[string]any) error {
	_, err := q.Exec(ctx, `
		INSERT INTO order_state_transitions (order_id, previous_state, new_state, actor_id, metadata)
		VALUES ($1, $2, $3, $4, $5)`,
		orderID, previous, next, actorID, metadata)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

func (r *OrderRepo) InsertAuditLog(ctx context.Context, q postgres.DBTX, actorID, action, entityType, entityID string, metadata map[string]any) error {
	_, err := q.Exec(ctx, `
		INSERT INTO audit_log (actor_id, action, entity_type, entity_id, metadata)
		VALUES ($1, $2, $3, $4, $5)`,
		actorID, action, entityType, entityID, metadata)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
