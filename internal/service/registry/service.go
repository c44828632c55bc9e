package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docregistry/internal/config"
	"docregistry/internal/domain"
	"docregistry/internal/domain/models"
	"docregistry/internal/domain/repositories"
	"docregistry/internal/domain/services"
	"docregistry/internal/service/accesscontrol"
)

var (
	documentIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	versionPattern    = regexp.MustCompile(`^[A-Za-z0-9.]+$`)
)

// roomMintAttempts bounds the retry loop around ledger collisions. With a
// 21-symbol alphabet at length 16 a single collision is already vanishingly
// rare; hitting the bound indicates a broken random source.
const roomMintAttempts = 5

// registryService implements the RegistryService interface
type registryService struct {
	repo      repositories.RegistryRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewService creates a new registry service
func NewService(
	repo repositories.RegistryRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.RegistryService {
	return &registryService{
		repo:      repo,
		txManager: txManager,
		logger:    logger,
	}
}

// Create registers a new document with its initial version and room
func (s *registryService) Create(ctx context.Context, caller models.Identity, req *services.CreateDocumentRequest) (*models.Document, error) {
	if req.Version == "" {
		req.Version = config.DefaultVersion
	}
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc := &models.Document{
		ID:        req.ID,
		Owner:     caller.Username,
		Tag:       req.Tag,
		Title:     strings.TrimSpace(req.Title),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	// A ledger collision on the candidate room aborts the whole transaction,
	// so each attempt re-runs the insert with a fresh token.
	err := s.withFreshRoom(func(room string) error {
		return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
			taken, err := s.repo.ExistsAnyState(txCtx, doc.ID)
			if err != nil {
				return err
			}
			if taken {
				// Soft-deleted and live documents both hold their id;
				// only a purge frees it for reuse.
				return &domain.ConflictError{
					Message:      fmt.Sprintf("document id '%s' is already taken", doc.ID),
					ResourceType: "document",
					ResourceID:   doc.ID,
				}
			}
			return s.repo.InsertDocumentWithVersion(txCtx, doc, req.Version, room)
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		"id", doc.ID,
		"owner", doc.Owner,
		"tag", doc.Tag,
		"version", req.Version,
	)

	return doc, nil
}

// List returns the documents visible to the caller
func (s *registryService) List(ctx context.Context, caller models.Identity, req *services.ListRequest) ([]models.Document, error) {
	filter := repositories.ListFilter{
		Caller:         caller.Username,
		Admin:          caller.Admin,
		All:            req.All && caller.Admin,
		Tag:            req.Tag,
		IncludeDeleted: req.IncludeDeleted,
	}

	return s.repo.ListVisible(ctx, filter)
}

// Rename updates the display title
func (s *registryService) Rename(ctx context.Context, caller models.Identity, id, title string) (*models.Document, error) {
	if err := validation.Validate(title, validation.Required, validation.Length(1, config.MaxTitleLength)); err != nil {
		return nil, fmt.Errorf("%w: title: %v", domain.ErrValidation, err)
	}

	if _, err := s.authorizeManage(ctx, caller, id, false); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTitle(ctx, id, strings.TrimSpace(title)); err != nil {
		return nil, err
	}

	s.logger.Info("document renamed", "id", id, "caller", caller.Username)

	return s.repo.Get(ctx, id)
}

// Share upserts a grant for a user
func (s *registryService) Share(ctx context.Context, caller models.Identity, id string, req *services.ShareRequest) (*models.Document, error) {
	grant, err := grantFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.authorizeManage(ctx, caller, id, false); err != nil {
		return nil, err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.repo.UpsertShare(txCtx, id, grant)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document shared",
		"id", id,
		"username", grant.Username,
		"can_read", grant.CanRead,
		"can_write", grant.CanWrite,
		"caller", caller.Username,
	)

	return s.repo.Get(ctx, id)
}

// Revoke removes a user's grant; absent grants are not an error
func (s *registryService) Revoke(ctx context.Context, caller models.Identity, id, username string) (*models.Document, error) {
	if err := validation.Validate(username, validation.Required, validation.Length(1, config.MaxUsernameLength)); err != nil {
		return nil, fmt.Errorf("%w: username: %v", domain.ErrValidation, err)
	}

	if _, err := s.authorizeManage(ctx, caller, id, false); err != nil {
		return nil, err
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.repo.DeleteShare(txCtx, id, username)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("share revoked", "id", id, "username", username, "caller", caller.Username)

	return s.repo.Get(ctx, id)
}

// Delete soft-deletes the document. Deleting an already-deleted document is
// a safe no-op; both end in the same terminal state.
func (s *registryService) Delete(ctx context.Context, caller models.Identity, id string) error {
	if _, err := s.authorizeManage(ctx, caller, id, true); err != nil {
		return err
	}

	if err := s.repo.SetDeleted(ctx, id, true); err != nil {
		return err
	}

	s.logger.Info("document soft-deleted", "id", id, "caller", caller.Username)

	return nil
}

// Restore clears the soft-delete flag
func (s *registryService) Restore(ctx context.Context, caller models.Identity, id string) (*models.Document, error) {
	if _, err := s.authorizeManage(ctx, caller, id, true); err != nil {
		return nil, err
	}

	if err := s.repo.SetDeleted(ctx, id, false); err != nil {
		return nil, err
	}

	s.logger.Info("document restored", "id", id, "caller", caller.Username)

	return s.repo.Get(ctx, id)
}

// PermanentDelete purges the document with all versions and shares
func (s *registryService) PermanentDelete(ctx context.Context, caller models.Identity, id string) error {
	if _, err := s.authorizeManage(ctx, caller, id, true); err != nil {
		return err
	}

	if err := s.repo.PurgeDocument(ctx, id); err != nil {
		return err
	}

	s.logger.Info("document purged", "id", id, "caller", caller.Username)

	return nil
}

// Access returns the room for a version plus the caller's effective
// permissions. Strictly read-only: it never creates a missing mapping.
func (s *registryService) Access(ctx context.Context, caller models.Identity, id, version string) (*services.AccessResponse, error) {
	if version == "" {
		version = config.DefaultVersion
	}
	if err := validateVersion(version); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !accesscontrol.CanRead(doc, caller.Username, caller.Admin) {
		return nil, deniedError(id)
	}

	room, ok := doc.Versions[version]
	if !ok {
		return nil, &domain.NotFoundError{
			Message: fmt.Sprintf("document %s has no version '%s'", id, version),
		}
	}

	return &services.AccessResponse{
		ID:          doc.ID,
		Version:     version,
		Room:        room,
		Permissions: accesscontrol.PermissionsFor(doc, caller.Username, caller.Admin),
	}, nil
}

// GetOrCreateRoom returns the room for (id, version), minting one atomically
// if the mapping does not exist yet
func (s *registryService) GetOrCreateRoom(ctx context.Context, caller models.Identity, id, version string) (*services.RoomResponse, error) {
	if version == "" {
		version = config.DefaultVersion
	}
	if err := validateVersion(version); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !accesscontrol.CanWrite(doc, caller.Username, caller.Admin) {
		return nil, deniedError(id)
	}

	var room string
	var created bool
	err = s.withFreshRoom(func(candidate string) error {
		return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
			var txErr error
			room, created, txErr = s.repo.InsertVersionIfAbsent(txCtx, id, version, candidate)
			return txErr
		})
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("room minted",
			"id", id,
			"version", version,
			"caller", caller.Username,
		)
	}

	return &services.RoomResponse{
		ID:      id,
		Version: version,
		Room:    room,
		Created: created,
	}, nil
}

// GenerateID returns a fresh random token of the requested length
func (s *registryService) GenerateID(ctx context.Context, caller models.Identity, length int) (string, error) {
	if length < MinTokenLength || length > MaxTokenLength {
		return "", fmt.Errorf("%w: length must be within [%d, %d], got %d",
			domain.ErrValidation, MinTokenLength, MaxTokenLength, length)
	}

	return NewToken(length)
}

// authorizeManage loads the document and checks manage rights. Absent
// documents and missing rights produce the identical error so callers cannot
// probe for existence.
func (s *registryService) authorizeManage(ctx context.Context, caller models.Identity, id string, anyState bool) (*models.Document, error) {
	var doc *models.Document
	var err error
	if anyState {
		doc, err = s.repo.GetAnyState(ctx, id)
	} else {
		doc, err = s.repo.Get(ctx, id)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, deniedError(id)
		}
		return nil, err
	}

	if !accesscontrol.CanManage(doc, caller.Username, caller.Admin) {
		return nil, deniedError(id)
	}

	return doc, nil
}

// withFreshRoom runs fn with newly minted candidate rooms until one is
// accepted or the retry limit is exhausted
func (s *registryService) withFreshRoom(fn func(room string) error) error {
	for attempt := 0; attempt < roomMintAttempts; attempt++ {
		room, err := NewToken(DefaultTokenLength)
		if err != nil {
			return err
		}

		err = fn(room)
		if !errors.Is(err, repositories.ErrRoomTaken) {
			return err
		}

		s.logger.Warn("room token collision, regenerating", "attempt", attempt+1)
	}

	return fmt.Errorf("minting room token: %w", repositories.ErrRoomTaken)
}

func deniedError(id string) error {
	return &domain.NotFoundError{
		Message: fmt.Sprintf("document %s: not found or access denied", id),
	}
}

func (s *registryService) validateCreateRequest(req *services.CreateDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ID,
			validation.Required,
			validation.Length(1, config.MaxDocumentIDLength),
			validation.Match(documentIDPattern).Error("may only contain letters, digits, '_', '.' and '-'"),
		),
		validation.Field(&req.Version,
			validation.Required,
			validation.Length(1, config.MaxVersionLength),
			validation.Match(versionPattern).Error("may only contain letters, digits and '.'"),
		),
		validation.Field(&req.Tag, validation.Length(0, config.MaxTagLength)),
		validation.Field(&req.Title, validation.Length(0, config.MaxTitleLength)),
	)
}

func validateVersion(version string) error {
	return validation.Validate(version,
		validation.Required,
		validation.Length(1, config.MaxVersionLength),
		validation.Match(versionPattern).Error("may only contain letters, digits and '.'"),
	)
}

// grantFromRequest validates a share request and folds the permission list
// into the stored flags. The grant replaces any prior one, so flags start
// from false rather than from the previous grant's values.
func grantFromRequest(req *services.ShareRequest) (models.ShareGrant, error) {
	grant := models.ShareGrant{}

	err := validation.ValidateStruct(req,
		validation.Field(&req.Username,
			validation.Required,
			validation.Length(1, config.MaxUsernameLength),
		),
	)
	if err != nil {
		return grant, err
	}

	grant.Username = req.Username
	for _, perm := range req.Permissions {
		switch perm {
		case models.PermissionRead:
			grant.CanRead = true
		case models.PermissionWrite:
			grant.CanWrite = true
		default:
			return models.ShareGrant{}, fmt.Errorf("unknown permission '%s' (want %q or %q)",
				perm, models.PermissionRead, models.PermissionWrite)
		}
	}

	return grant, nil
}
