package transport

import (
	"net/http"

	"craftbid/internal/domain"
	"craftbid/internal/middleware"
	"craftbid/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitBidRequest represents the bid submission payload
type SubmitBidRequest struct {
	ProjectID string `json:"project_id" validate:"required,uuid"`
	Price     int64  `json:"price" validate:"min=0"`
	Days      int    `json:"days" validate:"required,min=1"`
	Message   string `json:"message"`
}

// EditBidRequest represents the payload for editing an own pending bid
type EditBidRequest struct {
	Price   int64  `json:"price" validate:"min=0"`
	Days    int    `json:"days" validate:"required,min=1"`
	Message string `json:"message"`
}

// BidDecisionRequest carries the customer's accept/reject decision
type BidDecisionRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}

// BidListResponse wraps a bid page with its total count
type BidListResponse struct {
	Bids     []*domain.Bid `json:"bids"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// BidHandler handles HTTP requests for bid operations
type BidHandler struct {
	bidService     service.BidService
	projectService service.ProjectService
	logger         *zap.Logger
}

// NewBidHandler creates a new BidHandler
func NewBidHandler(bidService service.BidService, projectService service.ProjectService, logger *zap.Logger) *BidHandler {
	return &BidHandler{
		bidService:     bidService,
		projectService: projectService,
		logger:         logger,
	}
}

// RegisterRoutes registers all bid routes
func (h *BidHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/bids", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/", h.Submit)
		r.Get("/my", h.ListMine)
		r.Put("/{bidId}", h.Edit)
		r.Put("/{bidId}/status", h.Decide)
		r.Post("/{bidId}/withdraw", h.Withdraw)
	})

	r.Route("/api/projects/{id}/bids", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListForProject)
	})
}

// Submit handles a vendor's bid submission
func (h *BidHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req SubmitBidRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid project_id")
		return
	}

	bid, err := h.bidService.SubmitBid(r.Context(), actor, projectID, req.Price, req.Days, req.Message)
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to submit bid")
		return
	}

	h.logger.Info("Bid submitted",
		zap.String("bid_id", bid.ID.String()),
		zap.String("project_id", bid.ProjectID.String()),
		zap.Int64("price", bid.Price),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, bid)
}

// ListMine returns the calling vendor's bids
func (h *BidHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	page, pageSize := pagination(r)
	bids, total, err := h.bidService.ListVendorBids(r.Context(), actor, page, pageSize)
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to list bids")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, BidListResponse{
		Bids:     bids,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// ListForProject returns all bids on a project for its owner or a moderator
func (h *BidHandler) ListForProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	projectID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	bids, err := h.bidService.ListProjectBids(r.Context(), actor, projectID)
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to list project bids")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, bids)
}

// Edit handles a vendor updating their own pending bid
func (h *BidHandler) Edit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	bidID, ok := parseIDParam(w, r, "bidId")
	if !ok {
		return
	}

	var req EditBidRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	bid, err := h.bidService.EditBid(r.Context(), actor, bidID, req.Price, req.Days, req.Message)
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to edit bid")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, bid)
}

// Decide handles the customer's accept or reject decision on a bid.
// Acceptance selects the winner: the project advances and every competing
// pending bid is rejected in the same transaction.
func (h *BidHandler) Decide(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	bidID, ok := parseIDParam(w, r, "bidId")
	if !ok {
		return
	}

	var req BidDecisionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	if req.Status == string(domain.BidAccepted) {
		project, bid, err := h.projectService.AcceptBid(r.Context(), actor, bidID)
		if err != nil {
			respondDomainError(w, h.logger, err, "failed to accept bid")
			return
		}

		h.logger.Info("Bid accepted",
			zap.String("bid_id", bid.ID.String()),
			zap.String("project_id", project.ID.String()),
			zap.Int64("agreed_price", project.AgreedPrice),
		)
		middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"bid":     bid,
			"project": project,
		})
		return
	}

	bid, err := h.bidService.RejectBid(r.Context(), actor, bidID)
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to reject bid")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, bid)
}

// Withdraw handles a vendor retracting their own pending bid
func (h *BidHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	bidID, ok := parseIDParam(w, r, "bidId")
	if !ok {
		return
	}

	bid, err := h.bidService.WithdrawBid(r.Context(), actor, bidID)
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to withdraw bid")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, bid)
}
