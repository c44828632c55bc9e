package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"docregistry/internal/domain/services"
	"docregistry/internal/httputil"
	registrySvc "docregistry/internal/service/registry"
)

// RegistryHandler handles document registry HTTP requests
type RegistryHandler struct {
	service services.RegistryService
	logger  *slog.Logger
}

// NewRegistryHandler creates a new registry handler
func NewRegistryHandler(service services.RegistryService, logger *slog.Logger) *RegistryHandler {
	return &RegistryHandler{
		service: service,
		logger:  logger,
	}
}

// CreateDocument creates a new document with its initial version
// POST /api/documents
func (h *RegistryHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	var req services.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.service.Create(r.Context(), caller, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// ListDocuments lists documents visible to the caller
// GET /api/documents?tag=&all=&include_deleted=
func (h *RegistryHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := services.ListRequest{
		Tag:            query.Get("tag"),
		All:            query.Get("all") == "true" || query.Get("all") == "1",
		IncludeDeleted: query.Get("include_deleted") == "true" || query.Get("include_deleted") == "1",
	}

	docs, err := h.service.List(r.Context(), caller, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// RenameDocument updates the display title
// PATCH /api/documents/{id}
func (h *RegistryHandler) RenameDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.service.Rename(r.Context(), caller, r.PathValue("id"), req.Title)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// ShareDocument upserts a grant for a user
// POST /api/documents/{id}/shares
func (h *RegistryHandler) ShareDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	var req services.ShareRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.service.Share(r.Context(), caller, r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// RevokeShare removes a user's grant
// DELETE /api/documents/{id}/shares/{username}
func (h *RegistryHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	doc, err := h.service.Revoke(r.Context(), caller, r.PathValue("id"), r.PathValue("username"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument soft-deletes a document
// DELETE /api/documents/{id}
func (h *RegistryHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), caller, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreDocument clears the soft-delete flag
// POST /api/documents/{id}/restore
func (h *RegistryHandler) RestoreDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	doc, err := h.service.Restore(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// PermanentDeleteDocument purges a document irreversibly
// DELETE /api/documents/{id}/permanent
func (h *RegistryHandler) PermanentDeleteDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.PermanentDelete(r.Context(), caller, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AccessDocument returns the room for a version plus the caller's permissions
// GET /api/documents/{id}/access?version=
func (h *RegistryHandler) AccessDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	access, err := h.service.Access(r.Context(), caller, r.PathValue("id"), r.URL.Query().Get("version"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, access)
}

// GetOrCreateRoom returns the room for (id, version), minting it if absent
// POST /api/documents/{id}/rooms
func (h *RegistryHandler) GetOrCreateRoom(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	var req struct {
		Version string `json:"version"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, err := h.service.GetOrCreateRoom(r.Context(), caller, r.PathValue("id"), req.Version)
	if err != nil {
		handleError(w, err)
		return
	}

	status := http.StatusOK
	if room.Created {
		status = http.StatusCreated
	}
	httputil.RespondJSON(w, status, room)
}

// GenerateID returns a fresh random token
// GET /api/ids?length=
func (h *RegistryHandler) GenerateID(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	length := registrySvc.DefaultTokenLength
	if raw := r.URL.Query().Get("length"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "length must be an integer")
			return
		}
		length = parsed
	}

	id, err := h.service.GenerateID(r.Context(), caller, length)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// HealthCheck is a simple liveness endpoint
// GET /health
func (h *RegistryHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}
