package service

import (
	"context"
	"errors"
	"testing"

	"craftbid/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func newBidFixture() (*mockBidRepository, *mockProjectRepository, BidService) {
	bidRepo := newMockBidRepository()
	projectRepo := newMockProjectRepository(bidRepo)
	return bidRepo, projectRepo, NewBidService(bidRepo, projectRepo)
}

func vendor() Actor   { return Actor{ID: uuid.New(), Role: RoleVendor} }
func customer() Actor { return Actor{ID: uuid.New(), Role: RoleCustomer} }

func TestSubmitBid_PriceBounds(t *testing.T) {
	_, projectRepo, svc := newBidFixture()
	project := seedProject(projectRepo, uuid.New(), domain.StatusInBidding, 1000, 30)
	ctx := context.Background()

	tests := []struct {
		name     string
		price    int64
		accepted bool
	}{
		{"at baseline", 1000, true},
		{"one below baseline", 999, false},
		{"at double baseline", 2000, true},
		{"one above double baseline", 2001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bid, err := svc.SubmitBid(ctx, vendor(), project.ID, tt.price, 10, "")
			if tt.accepted {
				if err != nil {
					t.Fatalf("bid of %d rejected: %v", tt.price, err)
				}
				if bid.Status != domain.BidPending {
					t.Fatalf("bid status = %s, want pending", bid.Status)
				}
				return
			}
			var validation *domain.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("expected ValidationError for price %d, got %v", tt.price, err)
			}
			if validation.Field != "price" {
				t.Fatalf("violated field = %s, want price", validation.Field)
			}
			if validation.Min != 1000 || validation.Max != 2000 {
				t.Fatalf("reported bounds [%v, %v], want [1000, 2000]", validation.Min, validation.Max)
			}
		})
	}
}

func TestSubmitBid_DurationBounds(t *testing.T) {
	_, projectRepo, svc := newBidFixture()
	project := seedProject(projectRepo, uuid.New(), domain.StatusInBidding, 1000, 30)
	ctx := context.Background()

	if _, err := svc.SubmitBid(ctx, vendor(), project.ID, 1500, 30, ""); err != nil {
		t.Fatalf("days at ceiling rejected: %v", err)
	}

	_, err := svc.SubmitBid(ctx, vendor(), project.ID, 1500, 31, "")
	var validation *domain.ValidationError
	if !errors.As(err, &validation) || validation.Field != "days" {
		t.Fatalf("expected days ValidationError, got %v", err)
	}

	_, err = svc.SubmitBid(ctx, vendor(), project.ID, 1500, 0, "")
	if !errors.As(err, &validation) || validation.Reason != "below_minimum" {
		t.Fatalf("expected below_minimum for zero days, got %v", err)
	}
}

func TestSubmitBid_NoCeilingWhenRequestedDaysUnset(t *testing.T) {
	_, projectRepo, svc := newBidFixture()
	project := seedProject(projectRepo, uuid.New(), domain.StatusInBidding, 1000, 0)

	if _, err := svc.SubmitBid(context.Background(), vendor(), project.ID, 1500, 365, ""); err != nil {
		t.Fatalf("long bid rejected on project without a day ceiling: %v", err)
	}
}

func TestSubmitBid_ZeroBaselineAcceptsAnyNonNegativePrice(t *testing.T) {
	// An all-freeform project has baseline 0; the bound degenerates to
	// price >= 0 rather than a divide-by-zero or an always-empty range.
	_, projectRepo, svc := newBidFixture()
	project := seedProject(projectRepo, uuid.New(), domain.StatusInBidding, 0, 0)
	ctx := context.Background()

	if _, err := svc.SubmitBid(ctx, vendor(), project.ID, 0, 5, ""); err != nil {
		t.Fatalf("zero price rejected on zero-baseline project: %v", err)
	}
	if _, err := svc.SubmitBid(ctx, vendor(), project.ID, 99999, 5, ""); err != nil {
		t.Fatalf("large price rejected on zero-baseline project: %v", err)
	}
}

func TestSubmitBid_ProjectNotOpen(t *testing.T) {
	_, projectRepo, svc := newBidFixture()
	ctx := context.Background()

	for _, status := range []domain.ProjectStatus{
		domain.StatusDraft, domain.StatusInProgress, domain.StatusDelivered,
		domain.StatusCompleted, domain.StatusCancelled,
	} {
		project := seedProject(projectRepo, uuid.New(), status, 1000, 30)
		_, err := svc.SubmitBid(ctx, vendor(), project.ID, 1500, 10, "")
		var conflict *domain.StateConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("status %s: expected StateConflictError, got %v", status, err)
		}
	}
}

func TestSubmitBid_DuplicateRejected(t *testing.T) {
	_, projectRepo, svc := newBidFixture()
	project := seedProject(projectRepo, uuid.New(), domain.StatusInBidding, 1000, 30)
	ctx := context.Background()
	v := vendor()

	if _, err := svc.SubmitBid(ctx, v, project.ID, 1200, 10, "first"); err != nil {
		t.Fatalf("first bid rejected: %v", err)
	}

	_, err := svc.SubmitBid(ctx, v, project.ID, 1300, 12, "second")
	var conflict *domain.StateConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StateConflictError for duplicate bid, got %v", err)
	}
	if conflict.Operation != "submit duplicate bid" {
		t.Fatalf("operation = %q, want submit duplicate bid", conflict.Operation)
	}

	// A different vendor may still bid.
	if _, err := svc.SubmitBid(ctx, vendor(), project.ID, 1300, 12, ""); err != nil {
		t.Fatalf("second vendor's bid rejected: %v", err)
	}
}

func TestSubmitBid_UnknownProject(t *testing.T) {
	_, _, svc := newBidFixture()

	_, err := svc.SubmitBid(context.Background(), vendor(), uuid.New(), 1000, 10, "")
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestEditBid_RevalidatesBounds(t *testing.T) {
	_, projectRepo, svc := newBidFixture()
	project := seedProject(projectRepo, uuid.New(), domain.StatusInBidding, 1000, 30)
	ctx := context.Background()
	v := vendor()

	bid, err := svc.SubmitBid(ctx, v, project.ID, 1200, 10, "initial")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	edited, err := svc.EditBid(ctx, v, bid.ID, 1800, 20, "sharpened")
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if edited.Price != 1800 || edited.Days != 20 {
		t.Fatalf("edit not applied: %+v", edited)
	}

	_, err = svc.EditBid(ctx, v, bid.ID, 2500, 20, "too greedy")
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError on out-of-bounds edit, got %v", err)
	}
}

func TestEditBid_OnlyAuthorAndOnlyPending(t *testing.T) {
	bidRepo, projectRepo, svc := newBidFixture()
	project := seedProject(projectRepo, uuid.New(), domain.StatusInBidding, 1000, 30)
	ctx := context.Background()
	v := vendor()

	bid, err := svc.SubmitBid(ctx, v, project.ID, 1200, 10, "")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, err = svc.EditBid(ctx, vendor(), bid.ID, 1300, 10, "")
	var conflict *domain.StateConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StateConflictError for non-author edit, got %v", err)
	}

	// Decide the bid, then editing must fail.
	bidRepo.mu.Lock()
	bidRepo.bids[bid.ID].Status = domain.BidRejected
	bidRepo.mu.Unlock()

	_, err = svc.EditBid(ctx, v, bid.ID, 1300, 10, "")
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StateConflictError for decided-bid edit, got %v", err)
	}
}

func TestRejectBid_OwnerOnly(t *testing.T) {
	_, projectRepo, svc := newBidFixture()
	owner := customer()
	project := seedProject(projectRepo, owner.ID, domain.StatusInBidding, 1000, 30)
	ctx := context.Background()

	bid, err := svc.SubmitBid(ctx, vendor(), project.ID, 1200, 10, "")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, err = svc.RejectBid(ctx, customer(), bid.ID)
	var conflict *domain.StateConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StateConflictError for stranger reject, got %v", err)
	}

	rejected, err := svc.RejectBid(ctx, owner, bid.ID)
	if err != nil {
		t.Fatalf("owner reject failed: %v", err)
	}
	if rejected.Status != domain.BidRejected {
		t.Fatalf("bid status = %s, want rejected", rejected.Status)
	}

	// Project status is untouched by a plain rejection.
	reloaded, _ := projectRepo.FindByID(ctx, project.ID)
	if reloaded.Status != domain.StatusInBidding {
		t.Fatalf("project status = %s, want InBidding", reloaded.Status)
	}
}

func TestWithdrawBid(t *testing.T) {
	_, projectRepo, svc := newBidFixture()
	project := seedProject(projectRepo, uuid.New(), domain.StatusInBidding, 1000, 30)
	ctx := context.Background()
	v := vendor()

	bid, err := svc.SubmitBid(ctx, v, project.ID, 1200, 10, "")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	withdrawn, err := svc.WithdrawBid(ctx, v, bid.ID)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if withdrawn.Status != domain.BidRejected {
		t.Fatalf("withdrawn bid status = %s, want rejected", withdrawn.Status)
	}

	// Withdrawal frees the vendor to submit a fresh bid.
	if _, err := svc.SubmitBid(ctx, v, project.ID, 1400, 12, ""); err != nil {
		t.Fatalf("resubmission after withdrawal rejected: %v", err)
	}
}

// A bid at any price inside [baseline, 2 x baseline] is accepted; any price
// outside is rejected with the violated bound reported.
func TestProperty_BidPriceBoundary(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("prices are accepted exactly within the band", prop.ForAll(
		func(baseline int64, offset int64) bool {
			_, projectRepo, svc := newBidFixture()
			project := seedProject(projectRepo, uuid.New(), domain.StatusInBidding, baseline, 0)

			price := baseline + offset
			if price < 0 {
				return true
			}
			_, err := svc.SubmitBid(context.Background(), vendor(), project.ID, price, 5, "")

			inBand := price >= baseline && price <= 2*baseline
			if inBand && err != nil {
				t.Logf("FAIL: in-band price %d rejected (baseline %d): %v", price, baseline, err)
				return false
			}
			if !inBand {
				var validation *domain.ValidationError
				if !errors.As(err, &validation) {
					t.Logf("FAIL: out-of-band price %d accepted (baseline %d)", price, baseline)
					return false
				}
			}
			return true
		},
		gen.Int64Range(1, 1_000_000),
		gen.Int64Range(-2_000_000, 3_000_000),
	))

	properties.TestingRun(t)
}
