package service

import (
	"context"
	"fmt"
	"time"

	"craftbid/internal/domain"
	"craftbid/internal/repository"

	"github.com/google/uuid"
)

// BidService validates and records vendor bids. Winner selection lives on
// ProjectService because it advances the project itself.
type BidService interface {
	SubmitBid(ctx context.Context, actor Actor, projectID uuid.UUID, price int64, days int, message string) (*domain.Bid, error)
	EditBid(ctx context.Context, actor Actor, bidID uuid.UUID, price int64, days int, message string) (*domain.Bid, error)
	WithdrawBid(ctx context.Context, actor Actor, bidID uuid.UUID) (*domain.Bid, error)
	RejectBid(ctx context.Context, actor Actor, bidID uuid.UUID) (*domain.Bid, error)
	ListProjectBids(ctx context.Context, actor Actor, projectID uuid.UUID) ([]*domain.Bid, error)
	ListVendorBids(ctx context.Context, actor Actor, page, pageSize int) ([]*domain.Bid, int, error)
}

type bidService struct {
	bidRepo     repository.BidRepository
	projectRepo repository.ProjectRepository
}

// NewBidService creates a new instance of BidService
func NewBidService(bidRepo repository.BidRepository, projectRepo repository.ProjectRepository) BidService {
	return &bidService{
		bidRepo:     bidRepo,
		projectRepo: projectRepo,
	}
}

// SubmitBid validates a vendor's proposal against the project baseline and
// stores it as pending. A vendor with an existing pending bid on the project
// must edit it instead; the duplicate is rejected, not silently merged.
func (s *bidService) SubmitBid(ctx context.Context, actor Actor, projectID uuid.UUID, price int64, days int, message string) (*domain.Bid, error) {
	if actor.Role != RoleVendor {
		return nil, &domain.StateConflictError{
			Entity:    "project",
			ID:        projectID.String(),
			Current:   actor.Role,
			Operation: "bid as non-vendor",
		}
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if err == repository.ErrProjectNotFound {
			return nil, &domain.NotFoundError{Entity: "project", ID: projectID.String()}
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if !project.Status.AcceptsBids() {
		return nil, &domain.StateConflictError{
			Entity:    "project",
			ID:        projectID.String(),
			Current:   project.Status.String(),
			Operation: "submit bid",
		}
	}

	existing, err := s.bidRepo.FindPendingByProjectAndVendor(ctx, projectID, actor.ID)
	if err != nil && err != repository.ErrBidNotFound {
		return nil, fmt.Errorf("failed to check for existing bid: %w", err)
	}
	if existing != nil {
		return nil, &domain.StateConflictError{
			Entity:    "bid",
			ID:        existing.ID.String(),
			Current:   string(existing.Status),
			Operation: "submit duplicate bid",
		}
	}

	if err := validateBidPrice(price, project.BaselineTotal); err != nil {
		return nil, err
	}
	if err := validateBidDays(days, project.RequestedDays); err != nil {
		return nil, err
	}

	now := time.Now()
	bid := &domain.Bid{
		ID:        uuid.New(),
		ProjectID: projectID,
		VendorID:  actor.ID,
		Price:     price,
		Days:      days,
		Message:   message,
		Status:    domain.BidPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.bidRepo.Create(ctx, bid); err != nil {
		return nil, fmt.Errorf("failed to store bid: %w", err)
	}

	return bid, nil
}

// EditBid updates the vendor's own pending bid in place, re-running the same
// bounds checks against the project's stored baseline.
func (s *bidService) EditBid(ctx context.Context, actor Actor, bidID uuid.UUID, price int64, days int, message string) (*domain.Bid, error) {
	bid, err := s.ownPendingBid(ctx, actor, bidID, "edit")
	if err != nil {
		return nil, err
	}

	project, err := s.projectRepo.FindByID(ctx, bid.ProjectID)
	if err != nil {
		if err == repository.ErrProjectNotFound {
			return nil, &domain.NotFoundError{Entity: "project", ID: bid.ProjectID.String()}
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if !project.Status.AcceptsBids() {
		return nil, &domain.StateConflictError{
			Entity:    "project",
			ID:        project.ID.String(),
			Current:   project.Status.String(),
			Operation: "edit bid",
		}
	}

	if err := validateBidPrice(price, project.BaselineTotal); err != nil {
		return nil, err
	}
	if err := validateBidDays(days, project.RequestedDays); err != nil {
		return nil, err
	}

	bid.Price = price
	bid.Days = days
	bid.Message = message
	if err := s.bidRepo.UpdatePending(ctx, bid); err != nil {
		return nil, err
	}

	return bid, nil
}

// WithdrawBid rejects the vendor's own pending bid.
func (s *bidService) WithdrawBid(ctx context.Context, actor Actor, bidID uuid.UUID) (*domain.Bid, error) {
	if _, err := s.ownPendingBid(ctx, actor, bidID, "withdraw"); err != nil {
		return nil, err
	}

	bid, err := s.bidRepo.RejectPending(ctx, bidID)
	if err != nil {
		if err == repository.ErrBidNotFound {
			return nil, &domain.NotFoundError{Entity: "bid", ID: bidID.String()}
		}
		return nil, err
	}
	return bid, nil
}

// RejectBid lets the owning customer (or moderation) decline a pending bid
// without affecting the project status.
func (s *bidService) RejectBid(ctx context.Context, actor Actor, bidID uuid.UUID) (*domain.Bid, error) {
	bid, err := s.bidRepo.FindByID(ctx, bidID)
	if err != nil {
		if err == repository.ErrBidNotFound {
			return nil, &domain.NotFoundError{Entity: "bid", ID: bidID.String()}
		}
		return nil, fmt.Errorf("failed to load bid: %w", err)
	}

	if !actor.IsModerator() {
		project, err := s.projectRepo.FindByID(ctx, bid.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to load project: %w", err)
		}
		if project.CustomerID != actor.ID {
			return nil, &domain.StateConflictError{
				Entity:    "bid",
				ID:        bidID.String(),
				Current:   string(bid.Status),
				Operation: "reject as non-owner",
			}
		}
	}

	rejected, err := s.bidRepo.RejectPending(ctx, bidID)
	if err != nil {
		if err == repository.ErrBidNotFound {
			return nil, &domain.NotFoundError{Entity: "bid", ID: bidID.String()}
		}
		return nil, err
	}
	return rejected, nil
}

// ListProjectBids returns all bids on a project to its owner or moderation.
func (s *bidService) ListProjectBids(ctx context.Context, actor Actor, projectID uuid.UUID) ([]*domain.Bid, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if err == repository.ErrProjectNotFound {
			return nil, &domain.NotFoundError{Entity: "project", ID: projectID.String()}
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if !actor.IsModerator() && project.CustomerID != actor.ID {
		return nil, &domain.StateConflictError{
			Entity:    "project",
			ID:        projectID.String(),
			Current:   project.Status.String(),
			Operation: "list bids as non-owner",
		}
	}

	return s.bidRepo.ListByProject(ctx, projectID)
}

// ListVendorBids returns the calling vendor's own bids.
func (s *bidService) ListVendorBids(ctx context.Context, actor Actor, page, pageSize int) ([]*domain.Bid, int, error) {
	return s.bidRepo.ListByVendor(ctx, actor.ID, page, pageSize)
}

func (s *bidService) ownPendingBid(ctx context.Context, actor Actor, bidID uuid.UUID, operation string) (*domain.Bid, error) {
	bid, err := s.bidRepo.FindByID(ctx, bidID)
	if err != nil {
		if err == repository.ErrBidNotFound {
			return nil, &domain.NotFoundError{Entity: "bid", ID: bidID.String()}
		}
		return nil, fmt.Errorf("failed to load bid: %w", err)
	}
	if bid.VendorID != actor.ID {
		return nil, &domain.StateConflictError{
			Entity:    "bid",
			ID:        bidID.String(),
			Current:   string(bid.Status),
			Operation: operation + " as non-author",
		}
	}
	if bid.Status != domain.BidPending {
		return nil, &domain.StateConflictError{
			Entity:    "bid",
			ID:        bidID.String(),
			Current:   string(bid.Status),
			Operation: operation,
		}
	}
	return bid, nil
}

// validateBidPrice enforces baseline <= price <= 2 x baseline. An
// all-freeform project has baseline 0, so the range degenerates: any
// non-negative price is admissible and the customer decides on merit.
func validateBidPrice(price, baseline int64) error {
	if baseline == 0 {
		if price < 0 {
			return &domain.ValidationError{
				Field:  "price",
				Reason: "negative",
				Value:  float64(price),
				Min:    0,
			}
		}
		return nil
	}

	if price < baseline {
		return &domain.ValidationError{
			Field:  "price",
			Reason: "below_baseline",
			Value:  float64(price),
			Min:    float64(baseline),
			Max:    float64(2 * baseline),
		}
	}
	if price > 2*baseline {
		return &domain.ValidationError{
			Field:  "price",
			Reason: "above_ceiling",
			Value:  float64(price),
			Min:    float64(baseline),
			Max:    float64(2 * baseline),
		}
	}
	return nil
}

// validateBidDays enforces 1 <= days <= requestedDays (when the project sets
// a ceiling).
func validateBidDays(days, requestedDays int) error {
	if days < 1 {
		return &domain.ValidationError{
			Field:  "days",
			Reason: "below_minimum",
			Value:  float64(days),
			Min:    1,
			Max:    float64(requestedDays),
		}
	}
	if requestedDays > 0 && days > requestedDays {
		return &domain.ValidationError{
			Field:  "days",
			Reason: "above_requested",
			Value:  float64(days),
			Min:    1,
			Max:    float64(requestedDays),
		}
	}
	return nil
}
