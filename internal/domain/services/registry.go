package services

import (
	"context"

	"docregistry/internal/domain/models"
)

// CreateDocumentRequest carries the caller-supplied fields for document
// creation. Version defaults to "1" when empty.
type CreateDocumentRequest struct {
	ID      string `json:"id"`
	Tag     string `json:"tag,omitempty"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version,omitempty"`
}

// ListRequest narrows a listing. All is only honored for admin callers.
type ListRequest struct {
	Tag            string
	All            bool
	IncludeDeleted bool
}

// ShareRequest grants a user access to a document. Permissions is a subset of
// {"read", "write"}; the resulting grant replaces any prior grant for the
// same user outright.
type ShareRequest struct {
	Username    string   `json:"username"`
	Permissions []string `json:"permissions"`
}

// AccessResponse reports the room for a version together with the caller's
// effective permission set.
type AccessResponse struct {
	ID          string   `json:"id"`
	Version     string   `json:"version"`
	Room        string   `json:"room"`
	Permissions []string `json:"permissions"`
}

// RoomResponse is the result of a get-or-create room request. Created is true
// only for the single call that actually minted the room.
type RoomResponse struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Room    string `json:"room"`
	Created bool   `json:"created"`
}

// RegistryService implements the registry operations: every method
// authorizes the caller, reads or mutates through the store, and shapes the
// response. Unauthorized callers and absent documents are indistinguishable
// in every return value.
type RegistryService interface {
	// Create registers a new document with its initial version and a freshly
	// minted room. Fails with a conflict if the id is taken in any state.
	Create(ctx context.Context, caller models.Identity, req *CreateDocumentRequest) (*models.Document, error)

	// List returns the documents visible to the caller, in insertion order.
	List(ctx context.Context, caller models.Identity, req *ListRequest) ([]models.Document, error)

	// Rename updates the display title. Requires manage rights.
	Rename(ctx context.Context, caller models.Identity, id, title string) (*models.Document, error)

	// Share upserts a grant for a user. Requires manage rights.
	Share(ctx context.Context, caller models.Identity, id string, req *ShareRequest) (*models.Document, error)

	// Revoke removes a user's grant; revoking an absent grant is a no-op.
	// Requires manage rights.
	Revoke(ctx context.Context, caller models.Identity, id, username string) (*models.Document, error)

	// Delete soft-deletes the document. Requires manage rights.
	Delete(ctx context.Context, caller models.Identity, id string) error

	// Restore clears the soft-delete flag. Requires manage rights.
	Restore(ctx context.Context, caller models.Identity, id string) (*models.Document, error)

	// PermanentDelete purges the document with all versions and shares.
	// Irreversible. Requires manage rights.
	PermanentDelete(ctx context.Context, caller models.Identity, id string) error

	// Access returns the room for a version (default "1") plus the caller's
	// effective permissions. Strictly read-only: a version with no mapping is
	// reported as not found, never created.
	Access(ctx context.Context, caller models.Identity, id, version string) (*AccessResponse, error)

	// GetOrCreateRoom returns the room for (id, version), minting and
	// persisting one atomically if the mapping does not exist yet. Requires
	// write access.
	GetOrCreateRoom(ctx context.Context, caller models.Identity, id, version string) (*RoomResponse, error)

	// GenerateID returns a fresh random token of the requested length from
	// the safe alphabet. Length must be within [1, 128].
	GenerateID(ctx context.Context, caller models.Identity, length int) (string, error)
}
