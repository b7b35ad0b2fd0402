package tenantcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lodgio/lodgio-platform/shared/events"
	"github.com/lodgio/lodgio-platform/shared/models"
)

// memStore is an in-memory Store for tests
type memStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]models.TenantCacheEntry
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[uuid.UUID]models.TenantCacheEntry)}
}

func (s *memStore) Get(_ context.Context, tenantID uuid.UUID) (*models.TenantCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[tenantID]
	if !ok {
		return nil, ErrTenantNotInCache
	}
	copied := entry
	return &copied, nil
}

func (s *memStore) GetBySlug(_ context.Context, slug string) (*models.TenantCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.Slug == slug {
			copied := entry
			return &copied, nil
		}
	}
	return nil, ErrTenantNotInCache
}

func (s *memStore) Save(_ context.Context, entry *models.TenantCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.TenantID] = *entry
	return nil
}

func (s *memStore) ListOperational(_ context.Context) ([]models.TenantCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TenantCacheEntry
	for _, entry := range s.entries {
		e := entry
		if e.IsOperational() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) ListStale(_ context.Context, olderThan time.Time) ([]models.TenantCacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TenantCacheEntry
	for _, entry := range s.entries {
		if entry.LastSyncedAt.Before(olderThan) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *memStore) CountByStatus(_ context.Context) (map[models.TenantStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[models.TenantStatus]int64)
	for _, entry := range s.entries {
		counts[entry.Status]++
	}
	return counts, nil
}

func snapshot(status models.TenantStatus) events.TenantSnapshot {
	plan := models.TenantPlanStarter
	return events.TenantSnapshot{
		Name:     "Harbor View Hotel",
		Slug:     "harbor-view",
		Category: models.TenantCategoryHotel,
		Status:   status,
		Plan:     &plan,
	}
}

func TestManager_SaveOrUpdate_CreatesEntry(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mgr := NewManager(store)
	id := uuid.New()
	emitted := time.Now().UTC()

	if err := mgr.SaveOrUpdate(ctx, id, snapshot(models.TenantStatusTrial), emitted); err != nil {
		t.Fatalf("SaveOrUpdate: %v", err)
	}

	entry, err := mgr.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if entry.Status != models.TenantStatusTrial {
		t.Errorf("status = %q, want TRIAL", entry.Status)
	}
	if entry.Slug != "harbor-view" {
		t.Errorf("slug = %q, want harbor-view", entry.Slug)
	}
	if !entry.LastEventAt.Equal(emitted) {
		t.Errorf("LastEventAt = %v, want %v", entry.LastEventAt, emitted)
	}
	if entry.LastSyncedAt.IsZero() {
		t.Error("LastSyncedAt must be set on apply")
	}
}

func TestManager_IdempotentApply(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(newMemStore())
	id := uuid.New()
	emitted := time.Now().UTC()
	snap := snapshot(models.TenantStatusActive)

	if err := mgr.SaveOrUpdate(ctx, id, snap, emitted); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	first, _ := mgr.GetByID(ctx, id)

	// Redelivery of the same event must be a harmless overwrite.
	if err := mgr.SaveOrUpdate(ctx, id, snap, emitted); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	second, _ := mgr.GetByID(ctx, id)

	if first.Status != second.Status || first.Name != second.Name ||
		first.Slug != second.Slug || !first.LastEventAt.Equal(second.LastEventAt) {
		t.Error("applying the same event twice must yield an identical entry")
	}
}

func TestManager_FullSnapshotOverwrite(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(newMemStore())
	id := uuid.New()
	base := time.Now().UTC()

	if err := mgr.SaveOrUpdate(ctx, id, snapshot(models.TenantStatusActive), base); err != nil {
		t.Fatalf("SaveOrUpdate: %v", err)
	}

	// Second snapshot drops the plan and renames: every field must take
	// the incoming value, nothing may merge through.
	updated := events.TenantSnapshot{
		Name:     "Harbor View Hotel & Spa",
		Slug:     "harbor-view-spa",
		Category: models.TenantCategoryResort,
		Status:   models.TenantStatusActive,
		Plan:     nil,
	}
	if err := mgr.SaveOrUpdate(ctx, id, updated, base.Add(time.Second)); err != nil {
		t.Fatalf("SaveOrUpdate: %v", err)
	}

	entry, _ := mgr.GetByID(ctx, id)
	if entry.Name != updated.Name {
		t.Errorf("name = %q, want %q", entry.Name, updated.Name)
	}
	if entry.Slug != updated.Slug {
		t.Errorf("slug = %q, want %q", entry.Slug, updated.Slug)
	}
	if entry.Category != models.TenantCategoryResort {
		t.Errorf("category = %q, want resort", entry.Category)
	}
	if entry.Plan != nil {
		t.Error("plan must be overwritten to nil, not merged from the old entry")
	}
}

func TestManager_StaleEventRejected(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(newMemStore())
	id := uuid.New()
	base := time.Now().UTC()

	// E1 ACTIVE, E2 SUSPENDED, E3 ACTIVE applied in true causal order.
	if err := mgr.SaveOrUpdate(ctx, id, snapshot(models.TenantStatusActive), base); err != nil {
		t.Fatal(err)
	}
	if err := mgr.UpdateStatus(ctx, id, models.TenantStatusSuspended, base.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	if err := mgr.UpdateStatus(ctx, id, models.TenantStatusActive, base.Add(2*time.Second)); err != nil {
		t.Fatal(err)
	}

	// E2 redelivered after E3: the stale guard must keep the final state.
	if err := mgr.UpdateStatus(ctx, id, models.TenantStatusSuspended, base.Add(time.Second)); err != nil {
		t.Fatal(err)
	}

	entry, _ := mgr.GetByID(ctx, id)
	if entry.Status != models.TenantStatusActive {
		t.Errorf("status = %q, stale redelivery must not revert to SUSPENDED", entry.Status)
	}

	// A stale full snapshot is rejected the same way.
	if err := mgr.SaveOrUpdate(ctx, id, snapshot(models.TenantStatusSuspended), base.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	entry, _ = mgr.GetByID(ctx, id)
	if entry.Status != models.TenantStatusActive {
		t.Errorf("status = %q, stale snapshot must not overwrite newer state", entry.Status)
	}
}

func TestManager_MarkDeleted_ForcesCancelled(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(newMemStore())
	id := uuid.New()
	base := time.Now().UTC()

	if err := mgr.SaveOrUpdate(ctx, id, snapshot(models.TenantStatusActive), base); err != nil {
		t.Fatal(err)
	}

	deletedAt := base.Add(time.Minute)
	if err := mgr.MarkDeleted(ctx, id, deletedAt, deletedAt); err != nil {
		t.Fatal(err)
	}

	entry, _ := mgr.GetByID(ctx, id)
	if entry.Status != models.TenantStatusCancelled {
		t.Errorf("status = %q, want CANCELLED", entry.Status)
	}
	if entry.DeletedAt == nil || !entry.DeletedAt.Equal(deletedAt) {
		t.Error("soft-delete timestamp must be set")
	}
}

func TestManager_SoftDeleteDominance(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(newMemStore())
	id := uuid.New()
	base := time.Now().UTC()

	// CREATED immediately followed by DELETED: the row must end CANCELLED
	// and soft-deleted even though CREATED alone would have left it TRIAL.
	if err := mgr.SaveOrUpdate(ctx, id, snapshot(models.TenantStatusTrial), base); err != nil {
		t.Fatal(err)
	}
	if err := mgr.MarkDeleted(ctx, id, base.Add(time.Millisecond), base.Add(time.Millisecond)); err != nil {
		t.Fatal(err)
	}

	entry, _ := mgr.GetByID(ctx, id)
	if entry.Status != models.TenantStatusCancelled || entry.DeletedAt == nil {
		t.Errorf("entry = {status %q, deleted %v}, want CANCELLED and soft-deleted",
			entry.Status, entry.DeletedAt)
	}
}

func TestManager_NoOpsForUnknownTenant(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mgr := NewManager(store)
	id := uuid.New()
	now := time.Now().UTC()

	if err := mgr.MarkDeleted(ctx, id, now, now); err != nil {
		t.Errorf("MarkDeleted on unknown tenant must be a no-op, got %v", err)
	}
	if err := mgr.UpdateStatus(ctx, id, models.TenantStatusSuspended, now); err != nil {
		t.Errorf("UpdateStatus on unknown tenant must be a no-op, got %v", err)
	}
	if len(store.entries) != 0 {
		t.Error("no-op operations must not materialize entries")
	}
}

func TestManager_StaleEntriesReport(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mgr := NewManager(store)

	fresh := models.TenantCacheEntry{
		TenantID:     uuid.New(),
		Status:       models.TenantStatusActive,
		LastSyncedAt: time.Now().UTC(),
	}
	stale := models.TenantCacheEntry{
		TenantID:     uuid.New(),
		Status:       models.TenantStatusActive,
		LastSyncedAt: time.Now().UTC().Add(-2 * time.Hour),
	}
	store.entries[fresh.TenantID] = fresh
	store.entries[stale.TenantID] = stale

	got, err := mgr.StaleEntries(ctx, time.Hour)
	if err != nil {
		t.Fatalf("StaleEntries: %v", err)
	}
	if len(got) != 1 || got[0].TenantID != stale.TenantID {
		t.Errorf("expected exactly the stale entry, got %d entries", len(got))
	}
}

func TestManager_CountByStatus(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(newMemStore())
	base := time.Now().UTC()

	for i, status := range []models.TenantStatus{
		models.TenantStatusActive,
		models.TenantStatusActive,
		models.TenantStatusSuspended,
	} {
		snap := snapshot(status)
		if err := mgr.SaveOrUpdate(ctx, uuid.New(), snap, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatal(err)
		}
	}

	counts, err := mgr.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[models.TenantStatusActive] != 2 || counts[models.TenantStatusSuspended] != 1 {
		t.Errorf("counts = %v, want 2 ACTIVE / 1 SUSPENDED", counts)
	}
}
