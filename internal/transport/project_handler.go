package transport

import (
	"net/http"

	"craftbid/internal/catalog"
	"craftbid/internal/domain"
	"craftbid/internal/middleware"
	"craftbid/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ItemSpecRequest represents one line-item configuration in a draft payload
type ItemSpecRequest struct {
	ProductID    string   `json:"product_id" validate:"required"`
	SubtypeID    string   `json:"subtype_id"`
	MaterialID   string   `json:"material_id"`
	ColorID      string   `json:"color_id"`
	Width        float64  `json:"width"`
	Height       float64  `json:"height"`
	Length       float64  `json:"length"`
	Quantity     int      `json:"quantity" validate:"required,min=1"`
	AccessoryIDs []string `json:"accessory_ids"`
	Description  string   `json:"description"`
}

// ProjectDraftRequest represents the project creation / re-quote payload
type ProjectDraftRequest struct {
	RequestedDays   int               `json:"requested_days" validate:"min=0"`
	MainItem        ItemSpecRequest   `json:"main_item" validate:"required"`
	AdditionalItems []ItemSpecRequest `json:"additional_items" validate:"dive"`
}

// PublishRequest carries the moderation decision target status
type PublishRequest struct {
	Status domain.ProjectStatus `json:"status"`
}

// DeliverRequest represents the vendor's delivery payload
type DeliverRequest struct {
	Note  string   `json:"note"`
	Files []string `json:"files"`
}

// AcceptDeliveryRequest optionally carries a vendor rating
type AcceptDeliveryRequest struct {
	Rating  int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment string `json:"comment"`
}

// RejectDeliveryRequest carries the customer's rework reason
type RejectDeliveryRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ProjectListResponse wraps a project page with its total count
type ProjectListResponse struct {
	Projects []*domain.Project `json:"projects"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// ProjectHandler handles HTTP requests for project operations
type ProjectHandler struct {
	projectService service.ProjectService
	logger         *zap.Logger
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService service.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// RegisterRoutes registers all project routes
func (h *ProjectHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/projects", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.UpdateDraft)
		r.Post("/{id}/cancel", h.Cancel)
		r.Post("/{id}/deliver", h.Deliver)
		r.Post("/{id}/delivery/accept", h.AcceptDelivery)
		r.Post("/{id}/delivery/reject", h.RejectDelivery)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireModerator(h.logger))
			r.Post("/{id}/publish", h.Publish)
		})
	})

	r.Route("/api/vendors", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/{vendorId}/reviews", h.VendorReviews)
	})
}

// Create handles project creation with catalog-driven quoting
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req ProjectDraftRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	project, err := h.projectService.CreateProject(r.Context(), actor, toDraft(req))
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to create project")
		return
	}

	h.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.Int64("baseline_total", project.BaselineTotal),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, project)
}

// List returns the caller's projects; vendors see the open board instead
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	page, pageSize := pagination(r)

	var (
		projects []*domain.Project
		total    int
		err      error
	)
	if actor.Role == service.RoleVendor {
		projects, total, err = h.projectService.ListOpenProjects(r.Context(), page, pageSize)
	} else {
		projects, total, err = h.projectService.ListCustomerProjects(r.Context(), actor, page, pageSize)
	}
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to list projects")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProjectListResponse{
		Projects: projects,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Get returns a single project with its line items
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r, h.logger); !ok {
		return
	}

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(r.Context(), id)
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to get project")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, project)
}

// UpdateDraft re-quotes a project that is still in Draft
func (h *ProjectHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req ProjectDraftRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	project, err := h.projectService.UpdateDraft(r.Context(), actor, id, toDraft(req))
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to update project")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, project)
}

// Publish moves a moderated draft into a bid-accepting status
func (h *ProjectHandler) Publish(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	req := PublishRequest{Status: domain.StatusInBidding}
	if r.ContentLength > 0 {
		if err := middleware.DecodeAndValidate(r, &req); err != nil {
			respondDecodeError(w, h.logger, err)
			return
		}
	}

	project, err := h.projectService.Publish(r.Context(), actor, id, req.Status)
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to publish project")
		return
	}

	h.logger.Info("Project published",
		zap.String("project_id", project.ID.String()),
		zap.String("status", project.Status.String()),
	)
	middleware.RespondWithJSON(w, http.StatusOK, project)
}

// Cancel terminates a project
func (h *ProjectHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	project, err := h.projectService.Cancel(r.Context(), actor, id)
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to cancel project")
		return
	}

	h.logger.Info("Project cancelled", zap.String("project_id", project.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, project)
}

// Deliver records the assigned vendor's delivery
func (h *ProjectHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req DeliverRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	project, err := h.projectService.Deliver(r.Context(), actor, id, req.Note, req.Files)
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to record delivery")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, project)
}

// AcceptDelivery completes the project and settles the commission
func (h *ProjectHandler) AcceptDelivery(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req AcceptDeliveryRequest
	if r.ContentLength > 0 {
		if err := middleware.DecodeAndValidate(r, &req); err != nil {
			respondDecodeError(w, h.logger, err)
			return
		}
	}

	var review *service.DeliveryReview
	if req.Rating > 0 {
		review = &service.DeliveryReview{Rating: req.Rating, Comment: req.Comment}
	}

	project, err := h.projectService.AcceptDelivery(r.Context(), actor, id, review)
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to accept delivery")
		return
	}

	h.logger.Info("Project completed",
		zap.String("project_id", project.ID.String()),
		zap.Int64("commission", project.Commission),
		zap.Int64("vendor_earnings", project.VendorEarnings),
	)
	middleware.RespondWithJSON(w, http.StatusOK, project)
}

// RejectDelivery sends the project back to the vendor for rework
func (h *ProjectHandler) RejectDelivery(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req RejectDeliveryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, h.logger, err)
		return
	}

	project, err := h.projectService.RejectDelivery(r.Context(), actor, id, req.Reason)
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to reject delivery")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, project)
}

// VendorReviews lists the ratings collected for a vendor
func (h *ProjectHandler) VendorReviews(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r, h.logger); !ok {
		return
	}

	vendorID, ok := parseIDParam(w, r, "vendorId")
	if !ok {
		return
	}

	reviews, err := h.projectService.ListVendorReviews(r.Context(), vendorID)
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to list reviews")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, reviews)
}

func toDraft(req ProjectDraftRequest) service.ProjectDraft {
	return service.ProjectDraft{
		RequestedDays:   req.RequestedDays,
		MainItem:        toItemSpec(req.MainItem),
		AdditionalItems: toItemSpecs(req.AdditionalItems),
	}
}

func toItemSpec(req ItemSpecRequest) catalog.ItemSpec {
	return catalog.ItemSpec{
		ProductID:    req.ProductID,
		SubtypeID:    req.SubtypeID,
		MaterialID:   req.MaterialID,
		ColorID:      req.ColorID,
		Width:        req.Width,
		Height:       req.Height,
		Length:       req.Length,
		Quantity:     req.Quantity,
		AccessoryIDs: req.AccessoryIDs,
		Description:  req.Description,
	}
}

func toItemSpecs(reqs []ItemSpecRequest) []catalog.ItemSpec {
	if len(reqs) == 0 {
		return nil
	}
	specs := make([]catalog.ItemSpec, 0, len(reqs))
	for _, r := range reqs {
		specs = append(specs, toItemSpec(r))
	}
	return specs
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
