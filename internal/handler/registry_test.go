package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docregistry/internal/domain"
	"docregistry/internal/domain/models"
	"docregistry/internal/domain/services"
	"docregistry/internal/httputil"
)

// stubService cherry-picks the operations a test needs; everything else
// panics loudly through the embedded nil interface.
type stubService struct {
	services.RegistryService
	createErr error
}

func (s *stubService) Create(ctx context.Context, caller models.Identity, req *services.CreateDocumentRequest) (*models.Document, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.Document{ID: req.ID, Owner: caller.Username}, nil
}

func (s *stubService) GenerateID(ctx context.Context, caller models.Identity, length int) (string, error) {
	if length < 1 || length > 128 {
		return "", domain.ErrValidation
	}
	return strings.Repeat("x", length), nil
}

func newTestHandler(svc services.RegistryService) *RegistryHandler {
	return NewRegistryHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func authed(r *http.Request, username string) *http.Request {
	return httputil.WithIdentity(r, models.Identity{Username: username})
}

func TestCreateDocumentStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "created", err: nil, wantStatus: http.StatusCreated},
		{name: "validation", err: domain.ErrValidation, wantStatus: http.StatusBadRequest},
		{name: "conflict", err: &domain.ConflictError{Message: "taken", ResourceID: "doc1"}, wantStatus: http.StatusConflict},
		{name: "not found or denied", err: &domain.NotFoundError{Message: "gone"}, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&stubService{createErr: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader(`{"id":"doc1"}`))
			rec := httptest.NewRecorder()
			h.CreateDocument(rec, authed(req, "alice"))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			// Failures still carry a structured JSON body
			if tt.err != nil {
				var body map[string]interface{}
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("error body is not JSON: %v", err)
				}
				if _, ok := body["error"]; !ok {
					t.Errorf("error body missing 'error' field: %s", rec.Body.String())
				}
			}
		})
	}
}

func TestCreateDocumentRejectsBadJSON(t *testing.T) {
	h := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.CreateDocument(rec, authed(req, "alice"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestMissingIdentityIsUnauthorized(t *testing.T) {
	h := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader(`{"id":"doc1"}`))
	rec := httptest.NewRecorder()
	h.CreateDocument(rec, req) // no identity in context

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestGenerateID(t *testing.T) {
	h := newTestHandler(&stubService{})

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLen    int
	}{
		{name: "default length", query: "", wantStatus: http.StatusOK, wantLen: 16},
		{name: "explicit length", query: "?length=32", wantStatus: http.StatusOK, wantLen: 32},
		{name: "not a number", query: "?length=abc", wantStatus: http.StatusBadRequest},
		{name: "zero", query: "?length=0", wantStatus: http.StatusBadRequest},
		{name: "too long", query: "?length=129", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/ids"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.GenerateID(rec, authed(req, "alice"))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if len(body["id"]) != tt.wantLen {
				t.Errorf("id length = %d, want %d", len(body["id"]), tt.wantLen)
			}
		})
	}
}
