package service

import (
	"context"
	"fmt"
	"time"

	"craftbid/internal/catalog"
	"craftbid/internal/domain"
	"craftbid/internal/pricing"
	"craftbid/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogProvider serves the current catalog document. Implemented by the
// catalog store adapter; tests substitute a fixture.
type CatalogProvider interface {
	Catalog(ctx context.Context) (*domain.Catalog, error)
}

// ProjectDraft is the caller-supplied project configuration. The draft is an
// explicit argument: nothing about an in-flight submission is staged in
// process-wide state.
type ProjectDraft struct {
	RequestedDays   int
	MainItem        catalog.ItemSpec
	AdditionalItems []catalog.ItemSpec
}

// DeliveryReview is the optional rating attached to a delivery acceptance.
type DeliveryReview struct {
	Rating  int
	Comment string
}

// ProjectService owns quoting and the project lifecycle.
type ProjectService interface {
	CreateProject(ctx context.Context, actor Actor, draft ProjectDraft) (*domain.Project, error)
	UpdateDraft(ctx context.Context, actor Actor, projectID uuid.UUID, draft ProjectDraft) (*domain.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	ListCustomerProjects(ctx context.Context, actor Actor, page, pageSize int) ([]*domain.Project, int, error)
	ListOpenProjects(ctx context.Context, page, pageSize int) ([]*domain.Project, int, error)

	Publish(ctx context.Context, actor Actor, projectID uuid.UUID, to domain.ProjectStatus) (*domain.Project, error)
	AcceptBid(ctx context.Context, actor Actor, bidID uuid.UUID) (*domain.Project, *domain.Bid, error)
	Deliver(ctx context.Context, actor Actor, projectID uuid.UUID, note string, files []string) (*domain.Project, error)
	AcceptDelivery(ctx context.Context, actor Actor, projectID uuid.UUID, review *DeliveryReview) (*domain.Project, error)
	RejectDelivery(ctx context.Context, actor Actor, projectID uuid.UUID, reason string) (*domain.Project, error)
	Cancel(ctx context.Context, actor Actor, projectID uuid.UUID) (*domain.Project, error)

	ListVendorReviews(ctx context.Context, vendorID uuid.UUID) ([]*domain.VendorReview, error)
}

type projectService struct {
	projectRepo repository.ProjectRepository
	bidRepo     repository.BidRepository
	reviewRepo  repository.ReviewRepository
	catalog     CatalogProvider
	rates       CommissionRates
	logger      *zap.Logger
}

// NewProjectService creates a new instance of ProjectService
func NewProjectService(
	projectRepo repository.ProjectRepository,
	bidRepo repository.BidRepository,
	reviewRepo repository.ReviewRepository,
	catalogProvider CatalogProvider,
	rates CommissionRates,
	logger *zap.Logger,
) ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		bidRepo:     bidRepo,
		reviewRepo:  reviewRepo,
		catalog:     catalogProvider,
		rates:       rates,
		logger:      logger,
	}
}

// CreateProject resolves and prices every line item, aggregates the baseline
// total, and persists the project in Draft. Unit prices and item totals are
// snapshotted: later catalog changes never re-price this project.
func (s *projectService) CreateProject(ctx context.Context, actor Actor, draft ProjectDraft) (*domain.Project, error) {
	items, baseline, err := s.quote(ctx, draft)
	if err != nil {
		return nil, err
	}

	if draft.RequestedDays < 0 {
		return nil, &domain.ValidationError{
			Field:  "requested_days",
			Reason: "negative",
			Value:  float64(draft.RequestedDays),
			Min:    0,
		}
	}

	now := time.Now()
	project := &domain.Project{
		ID:            uuid.New(),
		CustomerID:    actor.ID,
		Status:        domain.StatusDraft,
		BaselineTotal: baseline,
		RequestedDays: draft.RequestedDays,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         items,
	}
	for i := range project.Items {
		project.Items[i].ProjectID = project.ID
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// UpdateDraft re-quotes a project that is still in Draft, replacing its items
// and baseline.
func (s *projectService) UpdateDraft(ctx context.Context, actor Actor, projectID uuid.UUID, draft ProjectDraft) (*domain.Project, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.CustomerID != actor.ID {
		return nil, notOwner(project, "update")
	}

	items, baseline, err := s.quote(ctx, draft)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ProjectID = projectID
	}

	if err := s.projectRepo.ReplaceItems(ctx, projectID, items, baseline); err != nil {
		return nil, err
	}

	return s.GetProject(ctx, projectID)
}

func (s *projectService) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrProjectNotFound {
			return nil, &domain.NotFoundError{Entity: "project", ID: id.String()}
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return project, nil
}

func (s *projectService) ListCustomerProjects(ctx context.Context, actor Actor, page, pageSize int) ([]*domain.Project, int, error) {
	return s.projectRepo.ListByCustomer(ctx, actor.ID, page, pageSize)
}

func (s *projectService) ListOpenProjects(ctx context.Context, page, pageSize int) ([]*domain.Project, int, error) {
	return s.projectRepo.ListOpen(ctx, page, pageSize)
}

// Publish records moderation's approval, moving the draft into a
// bid-accepting status.
func (s *projectService) Publish(ctx context.Context, actor Actor, projectID uuid.UUID, to domain.ProjectStatus) (*domain.Project, error) {
	if !actor.IsModerator() {
		return nil, &domain.StateConflictError{
			Entity:    "project",
			ID:        projectID.String(),
			Current:   actor.Role,
			Operation: "publish without moderation role",
		}
	}

	project, err := s.projectRepo.Publish(ctx, projectID, to)
	if err != nil {
		if err == repository.ErrProjectNotFound {
			return nil, &domain.NotFoundError{Entity: "project", ID: projectID.String()}
		}
		return nil, err
	}
	return project, nil
}

// AcceptBid is the single authoritative winner-selection operation. The
// repository transition is atomic: the chosen bid is accepted, every other
// non-terminal bid is rejected, and the project advances to InProgress with
// the vendor and agreed price recorded. A concurrent second accept observes
// the advanced status and fails with a StateConflictError.
func (s *projectService) AcceptBid(ctx context.Context, actor Actor, bidID uuid.UUID) (*domain.Project, *domain.Bid, error) {
	bid, err := s.bidRepo.FindByID(ctx, bidID)
	if err != nil {
		if err == repository.ErrBidNotFound {
			return nil, nil, &domain.NotFoundError{Entity: "bid", ID: bidID.String()}
		}
		return nil, nil, fmt.Errorf("failed to load bid: %w", err)
	}

	if !actor.IsModerator() {
		project, err := s.GetProject(ctx, bid.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		if project.CustomerID != actor.ID {
			return nil, nil, notOwner(project, "accept bid")
		}
	}

	return s.projectRepo.SelectWinner(ctx, bid.ProjectID, bidID)
}

// Deliver records the assigned vendor's delivery note and files.
func (s *projectService) Deliver(ctx context.Context, actor Actor, projectID uuid.UUID, note string, files []string) (*domain.Project, error) {
	project, err := s.projectRepo.Deliver(ctx, projectID, actor.ID, note, files)
	if err != nil {
		if err == repository.ErrProjectNotFound {
			return nil, &domain.NotFoundError{Entity: "project", ID: projectID.String()}
		}
		return nil, err
	}
	return project, nil
}

// AcceptDelivery completes the project, settling the commission split from
// the configured percentage. The optional vendor rating is captured after
// the completion commits; a failed rating write is logged, never surfaced.
func (s *projectService) AcceptDelivery(ctx context.Context, actor Actor, projectID uuid.UUID, review *DeliveryReview) (*domain.Project, error) {
	current, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	percent := s.rates.Percent(ctx, CommissionCategory)
	commission, earnings := SplitCommission(current.AgreedPrice, percent)

	project, err := s.projectRepo.AcceptDelivery(ctx, projectID, actor.ID, commission, earnings)
	if err != nil {
		if err == repository.ErrProjectNotFound {
			return nil, &domain.NotFoundError{Entity: "project", ID: projectID.String()}
		}
		return nil, err
	}

	if review != nil {
		s.captureReview(ctx, project, actor, review)
	}

	return project, nil
}

// RejectDelivery returns the project to InProgress with the customer's
// reason; the vendor may re-deliver.
func (s *projectService) RejectDelivery(ctx context.Context, actor Actor, projectID uuid.UUID, reason string) (*domain.Project, error) {
	project, err := s.projectRepo.RejectDelivery(ctx, projectID, actor.ID, reason)
	if err != nil {
		if err == repository.ErrProjectNotFound {
			return nil, &domain.NotFoundError{Entity: "project", ID: projectID.String()}
		}
		return nil, err
	}
	return project, nil
}

// Cancel terminates a non-terminal project. Customers may cancel their own
// project before a vendor is assigned; moderation may cancel at any
// non-terminal point.
func (s *projectService) Cancel(ctx context.Context, actor Actor, projectID uuid.UUID) (*domain.Project, error) {
	if !actor.IsModerator() {
		project, err := s.GetProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if project.CustomerID != actor.ID {
			return nil, notOwner(project, "cancel")
		}
		if project.AssignedVendor != nil {
			return nil, &domain.StateConflictError{
				Entity:    "project",
				ID:        projectID.String(),
				Current:   project.Status.String(),
				Operation: "cancel after assignment",
			}
		}
	}

	project, err := s.projectRepo.Cancel(ctx, projectID)
	if err != nil {
		if err == repository.ErrProjectNotFound {
			return nil, &domain.NotFoundError{Entity: "project", ID: projectID.String()}
		}
		return nil, err
	}
	return project, nil
}

func (s *projectService) ListVendorReviews(ctx context.Context, vendorID uuid.UUID) ([]*domain.VendorReview, error) {
	return s.reviewRepo.ListByVendor(ctx, vendorID)
}

// quote resolves and prices every item in the draft. The main item comes
// first; positions preserve the caller's ordering of additional items.
func (s *projectService) quote(ctx context.Context, draft ProjectDraft) ([]domain.LineItem, int64, error) {
	cat, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, 0, err
	}

	specs := append([]catalog.ItemSpec{draft.MainItem}, draft.AdditionalItems...)
	items := make([]domain.LineItem, 0, len(specs))
	totals := make([]int64, 0, len(specs))

	for i, spec := range specs {
		if spec.Quantity < 1 {
			return nil, 0, &domain.ValidationError{
				Field:  "quantity",
				Reason: "below_minimum",
				Value:  float64(spec.Quantity),
				Min:    1,
			}
		}

		inputs, err := catalog.Resolve(cat, spec)
		if err != nil {
			return nil, 0, err
		}
		result := pricing.CalculateItem(inputs)

		items = append(items, domain.LineItem{
			ID:           uuid.New(),
			ProductID:    spec.ProductID,
			SubtypeID:    spec.SubtypeID,
			MaterialID:   spec.MaterialID,
			ColorID:      spec.ColorID,
			Width:        spec.Width,
			Height:       spec.Height,
			Length:       spec.Length,
			Quantity:     spec.Quantity,
			AccessoryIDs: spec.AccessoryIDs,
			Description:  spec.Description,
			Main:         i == 0,
			Position:     i,
			PricePerUnit: result.PricePerUnit,
			Total:        result.Total,
		})
		totals = append(totals, result.Total)
	}

	return items, pricing.Aggregate(totals), nil
}

func (s *projectService) captureReview(ctx context.Context, project *domain.Project, actor Actor, review *DeliveryReview) {
	if project.AssignedVendor == nil {
		return
	}
	if review.Rating < 1 || review.Rating > 5 {
		s.logger.Warn("Ignoring out-of-range vendor rating",
			zap.String("project_id", project.ID.String()),
			zap.Int("rating", review.Rating),
		)
		return
	}

	err := s.reviewRepo.Create(ctx, &domain.VendorReview{
		ID:         uuid.New(),
		ProjectID:  project.ID,
		VendorID:   *project.AssignedVendor,
		CustomerID: actor.ID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		// Rating capture is best effort; completion already committed.
		s.logger.Warn("Failed to store vendor review",
			zap.String("project_id", project.ID.String()),
			zap.Error(err),
		)
	}
}

func notOwner(project *domain.Project, operation string) error {
	return &domain.StateConflictError{
		Entity:    "project",
		ID:        project.ID.String(),
		Current:   project.Status.String(),
		Operation: operation + " as non-owner",
	}
}
