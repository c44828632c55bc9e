package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"docregistry/internal/domain"
	"docregistry/internal/domain/models"
	"docregistry/internal/domain/repositories"
)

// fakeRegistry is an in-memory RegistryRepository mirroring the semantics of
// the Postgres implementation: any-state id uniqueness, a permanent room
// ledger, replace-not-merge share upserts. A single mutex stands in for the
// database's transaction isolation.
type fakeRegistry struct {
	mu    sync.Mutex
	docs  map[string]*fakeRecord
	rooms map[string]bool
	order []string
}

type fakeRecord struct {
	doc      models.Document
	versions map[string]string
	shares   map[string]models.ShareGrant
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		docs:  map[string]*fakeRecord{},
		rooms: map[string]bool{},
	}
}

// fakeTxManager runs the function directly; the fake store is atomic under
// its own mutex.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func notFound(id string) error {
	return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
}

func (f *fakeRegistry) snapshot(rec *fakeRecord) *models.Document {
	doc := rec.doc
	doc.Versions = make(map[string]string, len(rec.versions))
	for version, room := range rec.versions {
		doc.Versions[version] = room
	}
	doc.Shares = make([]models.ShareGrant, 0, len(rec.shares))
	for _, grant := range rec.shares {
		doc.Shares = append(doc.Shares, grant)
	}
	sort.Slice(doc.Shares, func(i, j int) bool {
		return doc.Shares[i].Username < doc.Shares[j].Username
	})
	return &doc
}

func (f *fakeRegistry) Get(ctx context.Context, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.docs[id]
	if !ok || rec.doc.Deleted {
		return nil, notFound(id)
	}
	return f.snapshot(rec), nil
}

func (f *fakeRegistry) GetAnyState(ctx context.Context, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.docs[id]
	if !ok {
		return nil, notFound(id)
	}
	return f.snapshot(rec), nil
}

func (f *fakeRegistry) ExistsAnyState(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.docs[id]
	return ok, nil
}

func (f *fakeRegistry) InsertDocumentWithVersion(ctx context.Context, doc *models.Document, version, room string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.docs[doc.ID]; ok {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("document id '%s' is already taken", doc.ID),
			ResourceType: "document",
			ResourceID:   doc.ID,
		}
	}
	if f.rooms[room] {
		return repositories.ErrRoomTaken
	}

	f.docs[doc.ID] = &fakeRecord{
		doc:      *doc,
		versions: map[string]string{version: room},
		shares:   map[string]models.ShareGrant{},
	}
	f.rooms[room] = true
	f.order = append(f.order, doc.ID)

	doc.Versions = map[string]string{version: room}
	doc.Shares = []models.ShareGrant{}
	return nil
}

func (f *fakeRegistry) UpdateTitle(ctx context.Context, id, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.docs[id]
	if !ok || rec.doc.Deleted {
		return notFound(id)
	}
	rec.doc.Title = title
	rec.doc.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRegistry) UpsertShare(ctx context.Context, id string, grant models.ShareGrant) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.docs[id]
	if !ok {
		return notFound(id)
	}
	rec.shares[grant.Username] = grant
	rec.doc.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRegistry) DeleteShare(ctx context.Context, id, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.docs[id]
	if !ok {
		return nil
	}
	if _, present := rec.shares[username]; present {
		delete(rec.shares, username)
		rec.doc.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeRegistry) SetDeleted(ctx context.Context, id string, deleted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.docs[id]
	if !ok {
		return notFound(id)
	}
	rec.doc.Deleted = deleted
	rec.doc.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRegistry) InsertVersionIfAbsent(ctx context.Context, id, version, candidateRoom string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.docs[id]
	if !ok {
		return "", false, notFound(id)
	}
	if room, present := rec.versions[version]; present {
		return room, false, nil
	}
	if f.rooms[candidateRoom] {
		return "", false, repositories.ErrRoomTaken
	}

	rec.versions[version] = candidateRoom
	f.rooms[candidateRoom] = true
	rec.doc.UpdatedAt = time.Now()
	return candidateRoom, true, nil
}

func (f *fakeRegistry) PurgeDocument(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.docs[id]; !ok {
		return notFound(id)
	}
	delete(f.docs, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	// Rooms stay in the ledger; purge never frees them
	return nil
}

func (f *fakeRegistry) ListVisible(ctx context.Context, filter repositories.ListFilter) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	everything := filter.Admin && filter.All

	docs := []models.Document{}
	for _, id := range f.order {
		rec := f.docs[id]
		if rec.doc.Deleted && !filter.IncludeDeleted {
			continue
		}
		if filter.Tag != "" && rec.doc.Tag != filter.Tag {
			continue
		}
		if !everything && rec.doc.Owner != filter.Caller {
			grant, ok := rec.shares[filter.Caller]
			if !ok || !grant.CanRead {
				continue
			}
		}
		docs = append(docs, *f.snapshot(rec))
	}
	return docs, nil
}

// versionCount reports how many mappings a document holds, bypassing the
// service. Used to prove read paths never mutate.
func (f *fakeRegistry) versionCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.docs[id]
	if !ok {
		return 0
	}
	return len(rec.versions)
}
