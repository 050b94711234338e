package service

import (
	"context"
	"sync"
	"time"

	"craftbid/internal/domain"
	"craftbid/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing. The project mock mirrors the repository's
// transition semantics (status re-check under a lock) so lifecycle tests
// exercise the same conflict behavior the database enforces.

type mockBidRepository struct {
	mu   sync.Mutex
	bids map[uuid.UUID]*domain.Bid
}

func newMockBidRepository() *mockBidRepository {
	return &mockBidRepository{bids: make(map[uuid.UUID]*domain.Bid)}
}

func (m *mockBidRepository) Create(ctx context.Context, bid *domain.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *bid
	m.bids[bid.ID] = &copied
	return nil
}

func (m *mockBidRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bid, ok := m.bids[id]
	if !ok {
		return nil, repository.ErrBidNotFound
	}
	copied := *bid
	return &copied, nil
}

func (m *mockBidRepository) FindPendingByProjectAndVendor(ctx context.Context, projectID, vendorID uuid.UUID) (*domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, bid := range m.bids {
		if bid.ProjectID == projectID && bid.VendorID == vendorID && bid.Status == domain.BidPending {
			copied := *bid
			return &copied, nil
		}
	}
	return nil, repository.ErrBidNotFound
}

func (m *mockBidRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bids := []*domain.Bid{}
	for _, bid := range m.bids {
		if bid.ProjectID == projectID {
			copied := *bid
			bids = append(bids, &copied)
		}
	}
	return bids, nil
}

func (m *mockBidRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID, page, pageSize int) ([]*domain.Bid, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bids := []*domain.Bid{}
	for _, bid := range m.bids {
		if bid.VendorID == vendorID {
			copied := *bid
			bids = append(bids, &copied)
		}
	}
	return bids, len(bids), nil
}

func (m *mockBidRepository) UpdatePending(ctx context.Context, bid *domain.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bids[bid.ID]
	if !ok || stored.Status != domain.BidPending {
		return &domain.StateConflictError{Entity: "bid", ID: bid.ID.String(), Current: "decided", Operation: "edit"}
	}
	stored.Price = bid.Price
	stored.Days = bid.Days
	stored.Message = bid.Message
	return nil
}

func (m *mockBidRepository) RejectPending(ctx context.Context, id uuid.UUID) (*domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bids[id]
	if !ok {
		return nil, repository.ErrBidNotFound
	}
	if stored.Status != domain.BidPending {
		return nil, &domain.StateConflictError{Entity: "bid", ID: id.String(), Current: string(stored.Status), Operation: "reject"}
	}
	stored.Status = domain.BidRejected
	copied := *stored
	return &copied, nil
}

type mockProjectRepository struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*domain.Project
	bidRepo  *mockBidRepository
}

func newMockProjectRepository(bids *mockBidRepository) *mockProjectRepository {
	return &mockProjectRepository{
		projects: make(map[uuid.UUID]*domain.Project),
		bidRepo:  bids,
	}
}

func (m *mockProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *project
	m.projects[project.ID] = &copied
	return nil
}

func (m *mockProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[id]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	copied := *project
	return &copied, nil
}

func (m *mockProjectRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, page, pageSize int) ([]*domain.Project, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	projects := []*domain.Project{}
	for _, p := range m.projects {
		if p.CustomerID == customerID {
			copied := *p
			projects = append(projects, &copied)
		}
	}
	return projects, len(projects), nil
}

func (m *mockProjectRepository) ListOpen(ctx context.Context, page, pageSize int) ([]*domain.Project, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	projects := []*domain.Project{}
	for _, p := range m.projects {
		if p.Status.AcceptsBids() {
			copied := *p
			projects = append(projects, &copied)
		}
	}
	return projects, len(projects), nil
}

func (m *mockProjectRepository) ReplaceItems(ctx context.Context, projectID uuid.UUID, items []domain.LineItem, baseline int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[projectID]
	if !ok {
		return repository.ErrProjectNotFound
	}
	if project.Status != domain.StatusDraft {
		return &domain.StateConflictError{Entity: "project", ID: projectID.String(), Current: project.Status.String(), Operation: "requote"}
	}
	project.Items = items
	project.BaselineTotal = baseline
	return nil
}

func (m *mockProjectRepository) Publish(ctx context.Context, id uuid.UUID, to domain.ProjectStatus) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[id]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	if project.Status != domain.StatusDraft || !to.AcceptsBids() {
		return nil, &domain.StateConflictError{Entity: "project", ID: id.String(), Current: project.Status.String(), Operation: "publish"}
	}
	project.Status = to
	copied := *project
	return &copied, nil
}

func (m *mockProjectRepository) SelectWinner(ctx context.Context, projectID, bidID uuid.UUID) (*domain.Project, *domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[projectID]
	if !ok {
		return nil, nil, repository.ErrProjectNotFound
	}
	if !project.Status.AcceptsBids() {
		return nil, nil, &domain.StateConflictError{Entity: "project", ID: projectID.String(), Current: project.Status.String(), Operation: "accept bid"}
	}

	m.bidRepo.mu.Lock()
	defer m.bidRepo.mu.Unlock()
	winner, ok := m.bidRepo.bids[bidID]
	if !ok || winner.ProjectID != projectID {
		return nil, nil, &domain.NotFoundError{Entity: "bid", ID: bidID.String()}
	}
	if winner.Status != domain.BidPending {
		return nil, nil, &domain.StateConflictError{Entity: "bid", ID: bidID.String(), Current: string(winner.Status), Operation: "accept"}
	}

	for _, bid := range m.bidRepo.bids {
		if bid.ProjectID == projectID && bid.Status == domain.BidPending && bid.ID != bidID {
			bid.Status = domain.BidRejected
		}
	}
	winner.Status = domain.BidAccepted
	project.Status = domain.StatusInProgress
	vendorID := winner.VendorID
	project.AssignedVendor = &vendorID
	project.AgreedPrice = winner.Price

	copiedProject := *project
	copiedBid := *winner
	return &copiedProject, &copiedBid, nil
}

func (m *mockProjectRepository) Deliver(ctx context.Context, projectID, vendorID uuid.UUID, note string, files []string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[projectID]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	if project.Status != domain.StatusInProgress {
		return nil, &domain.StateConflictError{Entity: "project", ID: projectID.String(), Current: project.Status.String(), Operation: "deliver"}
	}
	if project.AssignedVendor == nil || *project.AssignedVendor != vendorID {
		return nil, &domain.StateConflictError{Entity: "project", ID: projectID.String(), Current: project.Status.String(), Operation: "deliver as non-assigned vendor"}
	}
	project.Status = domain.StatusDelivered
	project.DeliveryNote = note
	project.DeliveryFiles = files
	copied := *project
	return &copied, nil
}

func (m *mockProjectRepository) AcceptDelivery(ctx context.Context, projectID, customerID uuid.UUID, commission, earnings int64) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[projectID]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	if project.Status != domain.StatusDelivered {
		return nil, &domain.StateConflictError{Entity: "project", ID: projectID.String(), Current: project.Status.String(), Operation: "accept delivery"}
	}
	if project.CustomerID != customerID {
		return nil, &domain.StateConflictError{Entity: "project", ID: projectID.String(), Current: project.Status.String(), Operation: "accept delivery as non-owner"}
	}
	project.Status = domain.StatusCompleted
	project.Commission = commission
	project.VendorEarnings = earnings
	copied := *project
	return &copied, nil
}

func (m *mockProjectRepository) RejectDelivery(ctx context.Context, projectID, customerID uuid.UUID, reason string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[projectID]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	if project.Status != domain.StatusDelivered {
		return nil, &domain.StateConflictError{Entity: "project", ID: projectID.String(), Current: project.Status.String(), Operation: "reject delivery"}
	}
	if project.CustomerID != customerID {
		return nil, &domain.StateConflictError{Entity: "project", ID: projectID.String(), Current: project.Status.String(), Operation: "reject delivery as non-owner"}
	}
	project.Status = domain.StatusInProgress
	project.RejectionReason = reason
	copied := *project
	return &copied, nil
}

func (m *mockProjectRepository) Cancel(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[projectID]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	if project.Status.Terminal() {
		return nil, &domain.StateConflictError{Entity: "project", ID: projectID.String(), Current: project.Status.String(), Operation: "cancel"}
	}
	project.Status = domain.StatusCancelled
	copied := *project
	return &copied, nil
}

type mockReviewRepository struct {
	mu      sync.Mutex
	reviews []*domain.VendorReview
	fail    bool
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.VendorReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return context.DeadlineExceeded
	}
	copied := *review
	m.reviews = append(m.reviews, &copied)
	return nil
}

func (m *mockReviewRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*domain.VendorReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reviews := []*domain.VendorReview{}
	for _, r := range m.reviews {
		if r.VendorID == vendorID {
			copied := *r
			reviews = append(reviews, &copied)
		}
	}
	return reviews, nil
}

type fixedCatalog struct {
	catalog *domain.Catalog
	err     error
}

func (f *fixedCatalog) Catalog(ctx context.Context) (*domain.Catalog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.catalog, nil
}

type fixedRates struct {
	percent float64
}

func (f *fixedRates) Percent(ctx context.Context, category string) float64 {
	return f.percent
}

// seedProject stores a project directly in the mock, bypassing the quoting
// path, for lifecycle tests that start mid-flight.
func seedProject(repo *mockProjectRepository, customerID uuid.UUID, status domain.ProjectStatus, baseline int64, requestedDays int) *domain.Project {
	project := &domain.Project{
		ID:            uuid.New(),
		CustomerID:    customerID,
		Status:        status,
		BaselineTotal: baseline,
		RequestedDays: requestedDays,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	repo.mu.Lock()
	repo.projects[project.ID] = project
	repo.mu.Unlock()
	return project
}
