package repository

import (
	"context"
	"database/sql"
	"fmt"

	"craftbid/internal/domain"

	"github.com/google/uuid"
)

// ReviewRepository stores the best-effort vendor ratings captured at
// delivery acceptance.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.VendorReview) error
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*domain.VendorReview, error)
}

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new instance of ReviewRepository
func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *domain.VendorReview) error {
	query := `
		INSERT INTO vendor_reviews (id, project_id, vendor_id, customer_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(
		ctx,
		query,
		review.ID,
		review.ProjectID,
		review.VendorID,
		review.CustomerID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*domain.VendorReview, error) {
	query := `
		SELECT id, project_id, vendor_id, customer_id, rating, comment, created_at
		FROM vendor_reviews
		WHERE vendor_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*domain.VendorReview{}
	for rows.Next() {
		review := &domain.VendorReview{}
		err := rows.Scan(
			&review.ID,
			&review.ProjectID,
			&review.VendorID,
			&review.CustomerID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}
