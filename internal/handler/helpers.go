package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"docregistry/internal/domain"
	"docregistry/internal/domain/models"
	"docregistry/internal/httputil"
)

// handleError converts domain errors to HTTP responses. Denied and absent
// documents share the 404 branch on purpose; 403 would leak existence.
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondError(w, http.StatusConflict, conflictErr.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("unexpected error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// callerIdentity pulls the authenticated identity out of the request. The
// auth middleware guarantees it for every registry route; a miss means the
// route was wired outside the middleware chain.
func callerIdentity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, ok := httputil.GetIdentity(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "no authenticated caller")
		return models.Identity{}, false
	}
	return identity, true
}
