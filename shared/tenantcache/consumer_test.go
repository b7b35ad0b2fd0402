package tenantcache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/lodgio/lodgio-platform/shared/events"
	"github.com/lodgio/lodgio-platform/shared/models"
)

func testConsumer() (*Consumer, *Manager) {
	mgr := NewManager(newMemStore())
	return &Consumer{manager: mgr}, mgr
}

func wireEvent(t *testing.T, kind events.EventKind, tenantID uuid.UUID, snap events.TenantSnapshot, emittedAt time.Time) []byte {
	t.Helper()
	raw, err := json.Marshal(events.TenantEvent{
		ID:        uuid.New(),
		Kind:      kind,
		TenantID:  tenantID,
		Snapshot:  snap,
		EmittedAt: emittedAt,
	})
	if err != nil {
		t.Fatalf("marshaling event: %v", err)
	}
	return raw
}

func TestConsumer_DispatchCreatedAndUpdated(t *testing.T) {
	ctx := context.Background()
	c, mgr := testConsumer()
	id := uuid.New()
	base := time.Now().UTC()

	msg := wireEvent(t, events.EventKindCreated, id, snapshot(models.TenantStatusTrial), base)
	if err := c.handleMessage(ctx, msg); err != nil {
		t.Fatalf("handleMessage(created): %v", err)
	}

	entry, err := mgr.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("entry not materialized: %v", err)
	}
	if entry.Status != models.TenantStatusTrial {
		t.Errorf("status = %q, want TRIAL", entry.Status)
	}

	updated := snapshot(models.TenantStatusActive)
	updated.Name = "Harbor View Grand"
	msg = wireEvent(t, events.EventKindUpdated, id, updated, base.Add(time.Second))
	if err := c.handleMessage(ctx, msg); err != nil {
		t.Fatalf("handleMessage(updated): %v", err)
	}

	entry, _ = mgr.GetByID(ctx, id)
	if entry.Name != "Harbor View Grand" || entry.Status != models.TenantStatusActive {
		t.Errorf("updated event not applied: %+v", entry)
	}
}

func TestConsumer_DispatchStatusKinds(t *testing.T) {
	ctx := context.Background()
	c, mgr := testConsumer()
	id := uuid.New()
	base := time.Now().UTC()

	created := wireEvent(t, events.EventKindCreated, id, snapshot(models.TenantStatusActive), base)
	if err := c.handleMessage(ctx, created); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		kind events.EventKind
		want models.TenantStatus
	}{
		{events.EventKindSuspended, models.TenantStatusSuspended},
		{events.EventKindActivated, models.TenantStatusActive},
		{events.EventKindExpired, models.TenantStatusExpired},
	}

	for i, tc := range cases {
		snap := snapshot(tc.want)
		msg := wireEvent(t, tc.kind, id, snap, base.Add(time.Duration(i+1)*time.Second))
		if err := c.handleMessage(ctx, msg); err != nil {
			t.Fatalf("handleMessage(%s): %v", tc.kind, err)
		}
		entry, _ := mgr.GetByID(ctx, id)
		if entry.Status != tc.want {
			t.Errorf("after %s event: status = %q, want %q", tc.kind, entry.Status, tc.want)
		}
	}
}

func TestConsumer_DispatchDeleted(t *testing.T) {
	ctx := context.Background()
	c, mgr := testConsumer()
	id := uuid.New()
	base := time.Now().UTC()

	created := wireEvent(t, events.EventKindCreated, id, snapshot(models.TenantStatusTrial), base)
	if err := c.handleMessage(ctx, created); err != nil {
		t.Fatal(err)
	}

	deletedAt := base.Add(time.Second)
	snap := snapshot(models.TenantStatusCancelled)
	snap.DeletedAt = &deletedAt
	deleted := wireEvent(t, events.EventKindDeleted, id, snap, deletedAt)
	if err := c.handleMessage(ctx, deleted); err != nil {
		t.Fatal(err)
	}

	entry, _ := mgr.GetByID(ctx, id)
	if entry.Status != models.TenantStatusCancelled {
		t.Errorf("status = %q, want CANCELLED", entry.Status)
	}
	if entry.DeletedAt == nil || !entry.DeletedAt.Equal(deletedAt) {
		t.Error("soft-delete timestamp must come from the snapshot")
	}
}

func TestConsumer_UnknownKindIsPoison(t *testing.T) {
	ctx := context.Background()
	c, _ := testConsumer()

	msg := wireEvent(t, events.EventKind("archived"), uuid.New(), snapshot(models.TenantStatusActive), time.Now().UTC())
	err := c.handleMessage(ctx, msg)
	if !errors.Is(err, errUnknownEventKind) {
		t.Fatalf("want errUnknownEventKind, got %v", err)
	}
}

func TestConsumer_UndecodableMessage(t *testing.T) {
	ctx := context.Background()
	c, _ := testConsumer()

	err := c.handleMessage(ctx, []byte("not json"))
	var dec *decodeError
	if !errors.As(err, &dec) {
		t.Fatalf("want *decodeError, got %v", err)
	}
}

// scriptReader feeds the consume loop scripted messages and records which
// of them get committed.
type scriptReader struct {
	mu        sync.Mutex
	msgs      chan kafka.Message
	fetchErr  error
	committed []kafka.Message
	commitCh  chan struct{}
}

func newScriptReader() *scriptReader {
	return &scriptReader{
		msgs:     make(chan kafka.Message, 8),
		commitCh: make(chan struct{}, 8),
	}
}

func (r *scriptReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.fetchErr != nil {
		return kafka.Message{}, r.fetchErr
	}
	select {
	case msg := <-r.msgs:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *scriptReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	r.committed = append(r.committed, msgs...)
	r.mu.Unlock()
	r.commitCh <- struct{}{}
	return nil
}

func (r *scriptReader) Close() error { return nil }

func (r *scriptReader) commitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

// unavailableStore fails the first N saves and signals each failure, then
// behaves like the in-memory store.
type unavailableStore struct {
	*memStore
	mu     sync.Mutex
	fails  int
	failed chan struct{}
}

func (s *unavailableStore) Save(ctx context.Context, entry *models.TenantCacheEntry) error {
	s.mu.Lock()
	if s.fails > 0 {
		s.fails--
		s.mu.Unlock()
		s.failed <- struct{}{}
		return errors.New("replica store unavailable")
	}
	s.mu.Unlock()
	return s.memStore.Save(ctx, entry)
}

func startConsumeLoop(c *Consumer, reader *scriptReader) (cancel func(), done chan struct{}) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	done = make(chan struct{})
	go func() {
		defer close(done)
		c.consumeLoop(ctx, topicReader{topic: events.TopicTenantCreated, reader: reader})
	}()
	return cancelCtx, done
}

func TestConsumer_CommitWithheldOnApplyFailure(t *testing.T) {
	store := &unavailableStore{
		memStore: newMemStore(),
		fails:    1,
		failed:   make(chan struct{}, 1),
	}
	mgr := NewManager(store)
	c := &Consumer{manager: mgr}
	reader := newScriptReader()

	cancel, done := startConsumeLoop(c, reader)
	defer func() {
		cancel()
		<-done
	}()

	id := uuid.New()
	msg := kafka.Message{
		Topic: events.TopicTenantCreated,
		Value: wireEvent(t, events.EventKindCreated, id, snapshot(models.TenantStatusActive), time.Now().UTC()),
	}

	// First delivery fails to apply: the offset must stay uncommitted.
	reader.msgs <- msg
	select {
	case <-store.failed:
	case <-time.After(2 * time.Second):
		t.Fatal("apply was never attempted")
	}
	if got := reader.commitCount(); got != 0 {
		t.Fatalf("committed %d messages after a failed apply, want 0", got)
	}

	// Redelivery succeeds and only then is the offset committed.
	reader.msgs <- msg
	select {
	case <-reader.commitCh:
	case <-time.After(2 * time.Second):
		t.Fatal("redelivered message was never committed")
	}
	if got := reader.commitCount(); got != 1 {
		t.Fatalf("committed %d messages, want 1", got)
	}

	entry, err := mgr.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("entry not materialized after redelivery: %v", err)
	}
	if entry.Status != models.TenantStatusActive {
		t.Errorf("status = %q, want ACTIVE", entry.Status)
	}
}

func TestConsumer_PoisonMessageIsCommitted(t *testing.T) {
	c, mgr := testConsumer()
	reader := newScriptReader()

	cancel, done := startConsumeLoop(c, reader)
	defer func() {
		cancel()
		<-done
	}()

	reader.msgs <- kafka.Message{
		Topic: events.TopicTenantCreated,
		Value: []byte("not json"),
	}
	select {
	case <-reader.commitCh:
	case <-time.After(2 * time.Second):
		t.Fatal("undecodable message must be committed, not redelivered forever")
	}

	if _, err := mgr.GetByID(context.Background(), uuid.New()); !errors.Is(err, ErrTenantNotInCache) {
		t.Errorf("poison message must not materialize entries, got %v", err)
	}
}

func TestConsumer_ClosedReaderStopsLoop(t *testing.T) {
	c, _ := testConsumer()
	reader := newScriptReader()
	reader.fetchErr = io.ErrClosedPipe

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.consumeLoop(context.Background(), topicReader{topic: events.TopicTenantCreated, reader: reader})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consume loop must stop when its reader is closed")
	}
}
