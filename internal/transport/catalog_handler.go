package transport

import (
	"net/http"

	"craftbid/internal/middleware"
	"craftbid/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler serves the resolved product catalog
type CatalogHandler struct {
	catalog service.CatalogProvider
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog service.CatalogProvider, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers the catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/catalog", h.Get)
}

// Get returns the current catalog snapshot
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.catalog.Catalog(r.Context())
	if err != nil {
		respondDomainError(w, h.logger, err, "failed to load catalog")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, catalog)
}
