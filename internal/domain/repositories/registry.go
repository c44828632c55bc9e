package repositories

import (
	"context"
	"errors"

	"docregistry/internal/domain/models"
)

// ErrRoomTaken reports that a candidate room token collided with one already
// recorded in the issuance ledger. Callers retry with a freshly generated
// token; the colliding candidate is never persisted.
var ErrRoomTaken = errors.New("room token already issued")

// ListFilter narrows ListVisible results.
type ListFilter struct {
	// Caller is the identity visibility is computed for.
	Caller string

	// Admin marks the caller as a system admin (sees everything it asks for).
	Admin bool

	// All broadens the scope to every document. Only honored for admins;
	// the operations layer clears it for everyone else.
	All bool

	// Tag restricts results to documents with this tag. Empty means no filter.
	Tag string

	// IncludeDeleted adds soft-deleted documents to the result.
	IncludeDeleted bool
}

// RegistryRepository is the durable keeper of documents, their version->room
// mappings and share grants. Every multi-row primitive either fully applies or
// fully fails; no partial write is ever visible to a subsequent reader.
type RegistryRepository interface {
	// Get retrieves a non-deleted document with its full version map and
	// share list. Soft-deleted documents are reported as ErrNotFound.
	Get(ctx context.Context, id string) (*models.Document, error)

	// GetAnyState retrieves a document regardless of its deleted flag.
	// Used by restore and by admin views over deleted documents.
	GetAnyState(ctx context.Context, id string) (*models.Document, error)

	// ExistsAnyState reports whether id is taken in any lifecycle state.
	ExistsAnyState(ctx context.Context, id string) (bool, error)

	// InsertDocumentWithVersion atomically inserts the document row together
	// with its first version mapping. Returns a ConflictError if the id is
	// taken in any state.
	InsertDocumentWithVersion(ctx context.Context, doc *models.Document, version, room string) error

	// UpdateTitle sets a new title and bumps updated_at.
	UpdateTitle(ctx context.Context, id, title string) error

	// UpsertShare replaces the grant row for (id, grant.Username). Replace,
	// never merge: the stored flags are exactly the ones passed in.
	UpsertShare(ctx context.Context, id string, grant models.ShareGrant) error

	// DeleteShare removes the grant row if present. Absent grants are not an
	// error; revocation is idempotent.
	DeleteShare(ctx context.Context, id, username string) error

	// SetDeleted flips the soft-delete flag and bumps updated_at.
	SetDeleted(ctx context.Context, id string, deleted bool) error

	// InsertVersionIfAbsent is the get-or-insert primitive behind room
	// issuance. If (id, version) already has a room it is returned with
	// created=false and candidateRoom is discarded. Otherwise candidateRoom
	// is persisted atomically and returned with created=true. Concurrent
	// callers for the same unset pair converge on a single persisted room.
	InsertVersionIfAbsent(ctx context.Context, id, version, candidateRoom string) (room string, created bool, err error)

	// PurgeDocument irreversibly destroys the document and cascades to all
	// of its versions and shares.
	PurgeDocument(ctx context.Context, id string) error

	// ListVisible returns, in insertion order, the document snapshots
	// matching the filter that the caller may read (owner, admin, or
	// read-granted).
	ListVisible(ctx context.Context, filter ListFilter) ([]models.Document, error)
}
