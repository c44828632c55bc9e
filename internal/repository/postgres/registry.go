package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"docregistry/internal/domain"
	"docregistry/internal/domain/models"
	"docregistry/internal/domain/repositories"
)

// PostgresRegistryRepository implements the RegistryRepository interface.
//
// Multi-statement primitives (InsertDocumentWithVersion, InsertVersionIfAbsent,
// UpsertShare) rely on the caller running them inside TransactionManager.ExecTx;
// every statement resolves its executor through GetExecutor, so a transaction
// present in the context is picked up automatically.
type PostgresRegistryRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRegistryRepository creates a new registry repository
func NewRegistryRepository(config *RepositoryConfig) repositories.RegistryRepository {
	return &PostgresRegistryRepository{
		pool:   config.Pool,
		logger: config.Logger,
	}
}

// Get retrieves a non-deleted document with its version map and share list
func (r *PostgresRegistryRepository) Get(ctx context.Context, id string) (*models.Document, error) {
	return r.getDocument(ctx, id, false)
}

// GetAnyState retrieves a document regardless of its deleted flag
func (r *PostgresRegistryRepository) GetAnyState(ctx context.Context, id string) (*models.Document, error) {
	return r.getDocument(ctx, id, true)
}

func (r *PostgresRegistryRepository) getDocument(ctx context.Context, id string, includeDeleted bool) (*models.Document, error) {
	query := `
		SELECT id, owner, tag, title, deleted, created_at, updated_at
		FROM documents
		WHERE id = $1 AND ($2 OR NOT deleted)
	`

	var doc models.Document
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, includeDeleted).Scan(
		&doc.ID,
		&doc.Owner,
		&doc.Tag,
		&doc.Title,
		&doc.Deleted,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	if err := r.attachVersions(ctx, []*models.Document{&doc}); err != nil {
		return nil, err
	}
	if err := r.attachShares(ctx, []*models.Document{&doc}); err != nil {
		return nil, err
	}

	return &doc, nil
}

// ExistsAnyState reports whether id is taken in any lifecycle state
func (r *PostgresRegistryRepository) ExistsAnyState(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`

	var exists bool
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check document existence: %w", err)
	}

	return exists, nil
}

// InsertDocumentWithVersion atomically inserts the document row together with
// its first version mapping and records the room in the issuance ledger
func (r *PostgresRegistryRepository) InsertDocumentWithVersion(ctx context.Context, doc *models.Document, version, room string) error {
	executor := GetExecutor(ctx, r.pool)

	docQuery := `
		INSERT INTO documents (id, owner, tag, title, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6)
		RETURNING created_at, updated_at
	`
	err := executor.QueryRow(ctx, docQuery,
		doc.ID,
		doc.Owner,
		doc.Tag,
		doc.Title,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document id '%s' is already taken", doc.ID),
				ResourceType: "document",
				ResourceID:   doc.ID,
			}
		}
		return fmt.Errorf("insert document: %w", err)
	}

	versionQuery := `
		INSERT INTO document_versions (document_id, version, room)
		VALUES ($1, $2, $3)
	`
	if _, err := executor.Exec(ctx, versionQuery, doc.ID, version, room); err != nil {
		if IsPgDuplicateOn(err, "document_versions_room_key") {
			return repositories.ErrRoomTaken
		}
		return fmt.Errorf("insert initial version: %w", err)
	}

	if err := r.recordRoom(ctx, room); err != nil {
		return err
	}

	doc.Versions = map[string]string{version: room}
	doc.Shares = []models.ShareGrant{}

	return nil
}

// UpdateTitle sets a new title on a live document and bumps updated_at
func (r *PostgresRegistryRepository) UpdateTitle(ctx context.Context, id, title string) error {
	query := `
		UPDATE documents
		SET title = $1, updated_at = now()
		WHERE id = $2 AND NOT deleted
	`

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, title, id)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// UpsertShare replaces the grant row for (id, grant.Username). The stored
// flags are exactly the ones passed in; nothing is merged with a prior grant.
func (r *PostgresRegistryRepository) UpsertShare(ctx context.Context, id string, grant models.ShareGrant) error {
	executor := GetExecutor(ctx, r.pool)

	query := `
		INSERT INTO document_shares (document_id, username, can_read, can_write)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id, username) DO UPDATE
		SET can_read = EXCLUDED.can_read,
		    can_write = EXCLUDED.can_write,
		    updated_at = now()
	`
	_, err := executor.Exec(ctx, query, id, grant.Username, grant.CanRead, grant.CanWrite)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("upsert share: %w", err)
	}

	return r.touchDocument(ctx, id)
}

// DeleteShare removes the grant row if present; absent grants are not an error
func (r *PostgresRegistryRepository) DeleteShare(ctx context.Context, id, username string) error {
	query := `DELETE FROM document_shares WHERE document_id = $1 AND username = $2`

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, username)
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}

	// Only an actual removal counts as a mutation of the document
	if result.RowsAffected() > 0 {
		return r.touchDocument(ctx, id)
	}

	return nil
}

// SetDeleted flips the soft-delete flag and bumps updated_at
func (r *PostgresRegistryRepository) SetDeleted(ctx context.Context, id string, deleted bool) error {
	query := `
		UPDATE documents
		SET deleted = $1, updated_at = now()
		WHERE id = $2
	`

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, deleted, id)
	if err != nil {
		return fmt.Errorf("set deleted flag: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// InsertVersionIfAbsent is the get-or-insert primitive behind room issuance.
// ON CONFLICT DO NOTHING makes concurrent callers for the same unset
// (document, version) pair converge: exactly one insert wins and every other
// caller reads the winner's room back.
func (r *PostgresRegistryRepository) InsertVersionIfAbsent(ctx context.Context, id, version, candidateRoom string) (string, bool, error) {
	executor := GetExecutor(ctx, r.pool)

	insertQuery := `
		INSERT INTO document_versions (document_id, version, room)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id, version) DO NOTHING
		RETURNING room
	`

	var room string
	err := executor.QueryRow(ctx, insertQuery, id, version, candidateRoom).Scan(&room)
	if err == nil {
		if err := r.recordRoom(ctx, room); err != nil {
			return "", false, err
		}
		if err := r.touchDocument(ctx, id); err != nil {
			return "", false, err
		}
		return room, true, nil
	}

	if IsPgDuplicateOn(err, "document_versions_room_key") {
		return "", false, repositories.ErrRoomTaken
	}
	if IsPgForeignKeyError(err) {
		return "", false, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	if !IsPgNoRowsError(err) {
		return "", false, fmt.Errorf("insert version: %w", err)
	}

	// Conflicted with an existing mapping; return the persisted room
	selectQuery := `
		SELECT room FROM document_versions
		WHERE document_id = $1 AND version = $2
	`
	if err := executor.QueryRow(ctx, selectQuery, id, version).Scan(&room); err != nil {
		return "", false, fmt.Errorf("read existing version: %w", err)
	}

	return room, false, nil
}

// PurgeDocument irreversibly destroys the document; versions and shares go
// with it via ON DELETE CASCADE. The rooms ledger is deliberately untouched.
func (r *PostgresRegistryRepository) PurgeDocument(ctx context.Context, id string) error {
	query := `DELETE FROM documents WHERE id = $1`

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("purge document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListVisible returns the document snapshots matching the filter that the
// caller may read, in insertion order
func (r *PostgresRegistryRepository) ListVisible(ctx context.Context, filter repositories.ListFilter) ([]models.Document, error) {
	query := `
		SELECT id, owner, tag, title, deleted, created_at, updated_at
		FROM documents d
		WHERE ($1 OR NOT d.deleted)
		  AND ($2 = '' OR d.tag = $2)
		  AND ($3 OR d.owner = $4 OR EXISTS (
		       SELECT 1 FROM document_shares s
		       WHERE s.document_id = d.id AND s.username = $4 AND s.can_read))
		ORDER BY d.created_at, d.id
	`

	// The all flag is only meaningful for admins; the operations layer
	// already clears it for everyone else, this is the backstop.
	everything := filter.Admin && filter.All

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, filter.IncludeDeleted, filter.Tag, everything, filter.Caller)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		err := rows.Scan(
			&doc.ID,
			&doc.Owner,
			&doc.Tag,
			&doc.Title,
			&doc.Deleted,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	refs := make([]*models.Document, len(docs))
	for i := range docs {
		refs[i] = &docs[i]
	}
	if err := r.attachVersions(ctx, refs); err != nil {
		return nil, err
	}
	if err := r.attachShares(ctx, refs); err != nil {
		return nil, err
	}

	// Return empty slice instead of nil if no documents
	if docs == nil {
		docs = []models.Document{}
	}

	return docs, nil
}

// attachVersions loads the version map for each document in one query
func (r *PostgresRegistryRepository) attachVersions(ctx context.Context, docs []*models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	byID := make(map[string]*models.Document, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		byID[doc.ID] = doc
		doc.Versions = map[string]string{}
	}

	query := `
		SELECT document_id, version, room
		FROM document_versions
		WHERE document_id = ANY($1)
	`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docID, version, room string
		if err := rows.Scan(&docID, &version, &room); err != nil {
			return fmt.Errorf("scan version: %w", err)
		}
		byID[docID].Versions[version] = room
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate versions: %w", err)
	}

	return nil
}

// attachShares loads the share list for each document in one query
func (r *PostgresRegistryRepository) attachShares(ctx context.Context, docs []*models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	byID := make(map[string]*models.Document, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		byID[doc.ID] = doc
		doc.Shares = []models.ShareGrant{}
	}

	query := `
		SELECT document_id, username, can_read, can_write
		FROM document_shares
		WHERE document_id = ANY($1)
		ORDER BY username
	`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docID string
		var grant models.ShareGrant
		if err := rows.Scan(&docID, &grant.Username, &grant.CanRead, &grant.CanWrite); err != nil {
			return fmt.Errorf("scan share: %w", err)
		}
		doc := byID[docID]
		doc.Shares = append(doc.Shares, grant)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate shares: %w", err)
	}

	return nil
}

// recordRoom appends to the permanent room-issuance ledger
func (r *PostgresRegistryRepository) recordRoom(ctx context.Context, room string) error {
	query := `INSERT INTO rooms (room) VALUES ($1)`

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, room); err != nil {
		if IsPgDuplicateError(err) {
			return repositories.ErrRoomTaken
		}
		return fmt.Errorf("record room: %w", err)
	}

	return nil
}

// touchDocument bumps updated_at on the parent document
func (r *PostgresRegistryRepository) touchDocument(ctx context.Context, id string) error {
	query := `UPDATE documents SET updated_at = now() WHERE id = $1`

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("touch document: %w", err)
	}

	return nil
}
