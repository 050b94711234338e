package transport

import (
	"errors"
	"net/http"
	"strconv"

	"craftbid/internal/domain"
	"craftbid/internal/middleware"
	"craftbid/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// requireActor extracts the authenticated caller from the request context.
// The auth middleware guarantees both values on protected routes; a miss
// means the route was wired without it.
func requireActor(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (service.Actor, bool) {
	idStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return service.Actor{}, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		logger.Error("Invalid user ID format", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user ID")
		return service.Actor{}, false
	}

	role, ok := middleware.GetUserRole(r.Context())
	if !ok {
		logger.Error("User role not found in context")
		middleware.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return service.Actor{}, false
	}

	return service.Actor{ID: id, Role: role}, true
}

// respondDomainError maps the core's typed errors onto HTTP statuses:
// validation 400, state conflict 409, not found 404, dependency down 503.
// Anything untyped is a 500 with a generic message.
func respondDomainError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		details := map[string]interface{}{
			"field":  validation.Field,
			"reason": validation.Reason,
			"value":  validation.Value,
		}
		if validation.Min != 0 || validation.Max != 0 {
			details["min"] = validation.Min
			details["max"] = validation.Max
		}
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, validation.Error(), details)
		return
	}

	var conflict *domain.StateConflictError
	if errors.As(err, &conflict) {
		middleware.RespondWithError(w, http.StatusConflict, conflict.Error())
		return
	}

	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		middleware.RespondWithError(w, http.StatusNotFound, notFound.Error())
		return
	}

	var unavailable *domain.DependencyUnavailableError
	if errors.As(err, &unavailable) {
		logger.Error("Dependency unavailable", zap.String("dependency", unavailable.Dependency), zap.Error(err))
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		return
	}

	logger.Error(fallback, zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
}

// respondDecodeError distinguishes field-level validation failures from plain
// malformed JSON.
func respondDecodeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	logger.Debug("Request validation failed", zap.Error(err))
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

// pagination reads page/page_size query parameters with sane defaults.
func pagination(r *http.Request) (page, pageSize int) {
	page, pageSize = 1, 20
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && n > 0 && n <= 100 {
		pageSize = n
	}
	return page, pageSize
}
