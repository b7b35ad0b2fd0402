package tenantcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/lodgio/lodgio-platform/shared/events"
)

// errUnknownEventKind marks a message that can never be applied. Retrying
// it is pointless, so the consumer commits it instead of looping forever.
var errUnknownEventKind = errors.New("unknown tenant event kind")

// decodeError wraps an unmarshal failure so the consume loop can tell a
// poison message apart from a transient apply failure.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("failed to decode tenant event: %v", e.err)
}

// fetchCommitter is the slice of kafka.Reader the consume loop needs,
// extracted so tests can script fetches and observe commits without a
// broker.
type fetchCommitter interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// topicReader pairs a reader with its topic for logging
type topicReader struct {
	topic  string
	reader fetchCommitter
}

// Consumer subscribes to every tenant lifecycle topic within one consumer
// group per service and feeds the cache manager. Commits are explicit and
// happen only after a successful apply: a failed apply leaves the message
// uncommitted so Kafka redelivers it on restart or to a group peer, which
// is safe because every manager operation is idempotent.
//
// Each reader runs exactly one consume loop. Parallelism comes from
// multiple readers per topic joining the same group: the group rebalance
// assigns every partition to a single reader, so messages from one
// partition are always fetched, applied and committed sequentially. Sharing
// a reader between loops would let a later offset be committed while an
// earlier one is still unacknowledged, silently dropping the earlier event.
type Consumer struct {
	manager *Manager
	readers []topicReader
	wg      sync.WaitGroup
}

// readersPerTopic is the number of group members (and thus consume loops)
// per lifecycle topic.
const readersPerTopic = 3

// NewConsumer creates a consumer for the given broker within the named
// consumer group (one group per consuming service, so each service sees
// every event independently of the others' progress).
func NewConsumer(broker, groupID string, manager *Manager) *Consumer {
	readers := make([]topicReader, 0, len(events.AllTopics)*readersPerTopic)
	for _, topic := range events.AllTopics {
		for i := 0; i < readersPerTopic; i++ {
			readers = append(readers, topicReader{
				topic: topic,
				reader: kafka.NewReader(kafka.ReaderConfig{
					Brokers:  []string{broker},
					Topic:    topic,
					GroupID:  groupID,
					MinBytes: 10e3, // 10KB
					MaxBytes: 10e6, // 10MB
				}),
			})
		}
	}

	return &Consumer{
		manager: manager,
		readers: readers,
	}
}

// Start launches one consume loop per reader and blocks until ctx is
// cancelled.
func (c *Consumer) Start(ctx context.Context) {
	for _, tr := range c.readers {
		c.wg.Add(1)
		go func(tr topicReader) {
			defer c.wg.Done()
			c.consumeLoop(ctx, tr)
		}(tr)
	}

	logrus.WithFields(logrus.Fields{
		"topics":  len(events.AllTopics),
		"readers": len(c.readers),
	}).Info("tenant cache consumer started")

	<-ctx.Done()
	c.wg.Wait()
}

// consumeLoop fetches, applies and commits messages from one reader. The
// commit for a message is issued by the same loop iteration that fetched
// it, never concurrently with another fetch from the same reader.
func (c *Consumer) consumeLoop(ctx context.Context, tr topicReader) {
	for {
		msg, err := tr.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// A closed reader never recovers; stop instead of spinning.
			if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, io.EOF) {
				logrus.Infof("[tenantcache] reader for %s closed, stopping consume loop", tr.topic)
				return
			}
			logrus.Errorf("[tenantcache] failed to fetch message from %s: %v", tr.topic, err)
			time.Sleep(time.Second)
			continue
		}

		if err := c.handleMessage(ctx, msg.Value); err != nil {
			var dec *decodeError
			if errors.Is(err, errUnknownEventKind) || errors.As(err, &dec) {
				// Poison message: commit so it is not redelivered forever.
				logrus.Errorf("[tenantcache] dropping unprocessable message on %s: %v", tr.topic, err)
				c.commit(ctx, tr, msg)
				continue
			}
			// Withhold the commit; the event log will redeliver.
			logrus.Errorf("[tenantcache] failed to apply event from %s, leaving uncommitted: %v", tr.topic, err)
			continue
		}

		c.commit(ctx, tr, msg)
	}
}

// handleMessage decodes one wire message and applies it
func (c *Consumer) handleMessage(ctx context.Context, value []byte) error {
	var event events.TenantEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return &decodeError{err: err}
	}
	return c.apply(ctx, event)
}

// apply dispatches an event to the matching manager operation. The switch
// is exhaustive over the closed kind set; anything else is unprocessable.
func (c *Consumer) apply(ctx context.Context, event events.TenantEvent) error {
	switch event.Kind {
	case events.EventKindCreated, events.EventKindUpdated:
		return c.manager.SaveOrUpdate(ctx, event.TenantID, event.Snapshot, event.EmittedAt)
	case events.EventKindDeleted:
		deletedAt := event.EmittedAt
		if event.Snapshot.DeletedAt != nil {
			deletedAt = *event.Snapshot.DeletedAt
		}
		return c.manager.MarkDeleted(ctx, event.TenantID, deletedAt, event.EmittedAt)
	case events.EventKindSuspended, events.EventKindActivated, events.EventKindExpired:
		return c.manager.UpdateStatus(ctx, event.TenantID, event.Snapshot.Status, event.EmittedAt)
	}
	return fmt.Errorf("%w: %q", errUnknownEventKind, event.Kind)
}

func (c *Consumer) commit(ctx context.Context, tr topicReader, msg kafka.Message) {
	if err := tr.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
		logrus.Errorf("[tenantcache] failed to commit offset on %s: %v", tr.topic, err)
	}
}

// Close closes every reader
func (c *Consumer) Close() error {
	var firstErr error
	for _, tr := range c.readers {
		if err := tr.reader.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close reader for %s: %w", tr.topic, err)
		}
	}
	return firstErr
}
