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

const listingCols = `id, seller_id, title, description, price_min, status,
	reserved_by, reserved_at, version, created_at, updated_at`

type ListingRepo struct{ DB *pgxpool.Pool }

func scanListing(row pgx.Row) (*Listing, error) {
	var l Listing
	err := row.Scan(&l.ID, &l.SellerID, &l.Title, &l.Description, &l.PriceMin,
		&l.Status, &l.ReservedBy, &l.ReservedAt, &l.Version, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	return &l, nil
}

func (r *ListingRepo) Create(ctx context.Context, sellerID, title string, description *string, priceMin decimal.Decimal) (*Listing, error) {
	return scanListing(r.DB.QueryRow(ctx, `
		INSERT INTO listings (seller_id, title, description, price_min)
		VALUES ($1, $2, $3, $4)
		RETURNING `+listingCols,
		sellerID, title, description, priceMin))
}

func (r *ListingRepo) FindAll(ctx context.Context) ([]Listing, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+listingCols+` FROM listings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *ListingRepo) FindByID(ctx context.Context, id string) (*Listing, error) {
	return scanListing(r.DB.QueryRow(ctx, `SELECT `+listingCols+` FROM listings WHERE id = $1`, id))
}

// ReserveAtomically flips an ACTIVE listing to RESERVED in one guarded
// UPDATE. Returns nil when the guard misses (already reserved, or gone):
// that single WHERE clause is the whole double-reserve defense — a
// concurrent caller blocks on the row until we commit, then matches nothing.
func (r *ListingRepo) ReserveAtomically(ctx context.Context, q postgres.DBTX, listingID, buyerID string) (*Listing, error) {
	return scanListing(q.QueryRow(ctx, `
		UPDATE listings
		SET status = 'RESERVED',
		    reserved_by = $2,
		    reserved_at = now(),
		    version = version + 1,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'ACTIVE'
		RETURNING `+listingCols,
		listingID, buyerID))
}

// UpdateStatus overwrites the status unconditionally. Used only to mirror
// downstream order states (SHIPPED, COMPLETED) onto the listing.
func (r *ListingRepo) UpdateStatus(ctx context.Context, q postgres.DBTX, listingID string, status ListingStatus) (*Listing, error) {
	return scanListing(q.QueryRow(ctx, `
		UPDATE listings
		SET status = $2, version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING `+listingCols,
		listingID, status))
}
