package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"craftbid/internal/domain"

	"github.com/google/uuid"
)

// BidRepository defines data access for bids. The single-winner transition
// that touches bids and the project together lives on ProjectRepository
// (SelectWinner); everything here mutates one bid at a time.
type BidRepository interface {
	Create(ctx context.Context, bid *domain.Bid) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Bid, error)
	FindPendingByProjectAndVendor(ctx context.Context, projectID, vendorID uuid.UUID) (*domain.Bid, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Bid, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, page, pageSize int) ([]*domain.Bid, int, error)
	UpdatePending(ctx context.Context, bid *domain.Bid) error
	RejectPending(ctx context.Context, id uuid.UUID) (*domain.Bid, error)
}

type bidRepository struct {
	db *sql.DB
}

// NewBidRepository creates a new instance of BidRepository
func NewBidRepository(db *sql.DB) BidRepository {
	return &bidRepository{db: db}
}

const bidColumns = `id, project_id, vendor_id, price, days, message, status, created_at, updated_at`

// Create inserts a new bid. The partial unique index on
// (project_id, vendor_id) WHERE status = 'pending' backstops the one active
// bid per vendor rule at the database level.
func (r *bidRepository) Create(ctx context.Context, bid *domain.Bid) error {
	query := `
		INSERT INTO bids (id, project_id, vendor_id, price, days, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(
		ctx,
		query,
		bid.ID,
		bid.ProjectID,
		bid.VendorID,
		bid.Price,
		bid.Days,
		bid.Message,
		string(bid.Status),
		bid.CreatedAt,
		bid.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bid: %w", err)
	}
	return nil
}

// FindByID retrieves a bid by ID.
func (r *bidRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`

	bid, err := scanBid(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBidNotFound
		}
		return nil, fmt.Errorf("failed to find bid by ID: %w", err)
	}
	return bid, nil
}

// FindPendingByProjectAndVendor retrieves a vendor's non-terminal bid on a
// project, if any. Used to distinguish a duplicate submission from an edit.
func (r *bidRepository) FindPendingByProjectAndVendor(ctx context.Context, projectID, vendorID uuid.UUID) (*domain.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE project_id = $1 AND vendor_id = $2 AND status = $3
	`
	bid, err := scanBid(r.db.QueryRowContext(ctx, query, projectID, vendorID, string(domain.BidPending)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBidNotFound
		}
		return nil, fmt.Errorf("failed to find pending bid: %w", err)
	}
	return bid, nil
}

// ListByProject retrieves all bids on a project, newest first.
func (r *bidRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE project_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	defer rows.Close()

	return collectBids(rows)
}

// ListByVendor retrieves a vendor's bids with pagination, newest first.
func (r *bidRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID, page, pageSize int) ([]*domain.Bid, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bids WHERE vendor_id = $1`, vendorID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bids: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE vendor_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, vendorID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vendor bids: %w", err)
	}
	defer rows.Close()

	bids, err := collectBids(rows)
	if err != nil {
		return nil, 0, err
	}
	return bids, total, nil
}

// UpdatePending edits a bid in place. The status predicate keeps decided bids
// immutable: once accepted or rejected, zero rows match.
func (r *bidRepository) UpdatePending(ctx context.Context, bid *domain.Bid) error {
	query := `
		UPDATE bids
		SET price = $2, days = $3, message = $4, updated_at = $5
		WHERE id = $1 AND status = $6
	`
	result, err := r.db.ExecContext(ctx, query,
		bid.ID, bid.Price, bid.Days, bid.Message, time.Now(), string(domain.BidPending))
	if err != nil {
		return fmt.Errorf("failed to update bid: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &domain.StateConflictError{
			Entity:    "bid",
			ID:        bid.ID.String(),
			Current:   "decided",
			Operation: "edit",
		}
	}
	return nil
}

// RejectPending marks a pending bid rejected. The project is untouched.
func (r *bidRepository) RejectPending(ctx context.Context, id uuid.UUID) (*domain.Bid, error) {
	query := `
		UPDATE bids
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
		RETURNING ` + bidColumns

	bid, err := scanBid(r.db.QueryRowContext(ctx, query,
		id, string(domain.BidRejected), time.Now(), string(domain.BidPending)))
	if err != nil {
		if err == sql.ErrNoRows {
			// Either the bid does not exist or it is already decided;
			// disambiguate for the caller.
			if _, findErr := r.FindByID(ctx, id); findErr == ErrBidNotFound {
				return nil, ErrBidNotFound
			}
			return nil, &domain.StateConflictError{
				Entity:    "bid",
				ID:        id.String(),
				Current:   "decided",
				Operation: "reject",
			}
		}
		return nil, fmt.Errorf("failed to reject bid: %w", err)
	}
	return bid, nil
}

func scanBid(row rowScanner) (*domain.Bid, error) {
	var (
		bid    domain.Bid
		status string
	)
	err := row.Scan(
		&bid.ID,
		&bid.ProjectID,
		&bid.VendorID,
		&bid.Price,
		&bid.Days,
		&bid.Message,
		&status,
		&bid.CreatedAt,
		&bid.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	bid.Status = domain.BidStatus(status)
	return &bid, nil
}

func collectBids(rows *sql.Rows) ([]*domain.Bid, error) {
	bids := []*domain.Bid{}
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}
	return bids, nil
}
