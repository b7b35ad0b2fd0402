package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/lodgio/lodgio-platform/shared/models"
)

// messageWriter is the slice of kafka.Writer the publisher needs, extracted
// so tests can capture written messages without a broker.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// TenantEventPublisher emits tenant lifecycle events to Kafka through a
// worker pool. Publishing is fire-and-forget from the caller's point of
// view: the authority's database write has already committed, so a failed
// delivery is logged and left to monitoring - it is never rolled back.
type TenantEventPublisher struct {
	writer       messageWriter
	eventChan    chan TenantEvent
	workerCount  int
	shutdownChan chan struct{}
	wg           sync.WaitGroup
}

// NewTenantEventPublisher creates a publisher connected to the given broker
// and starts its worker pool.
func NewTenantEventPublisher(broker string) *TenantEventPublisher {
	writer := &kafka.Writer{
		Addr: kafka.TCP(broker),
		// Tenant ID is the message key; hashing keeps all events for one
		// tenant on the same partition, which is the ordering guarantee
		// downstream consumers rely on.
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	p := newPublisherWithWriter(writer)
	p.startWorkers()
	return p
}

// newPublisherWithWriter wires a publisher around an arbitrary writer.
// Used by NewTenantEventPublisher and by tests.
func newPublisherWithWriter(w messageWriter) *TenantEventPublisher {
	return &TenantEventPublisher{
		writer:       w,
		eventChan:    make(chan TenantEvent, 1000),
		workerCount:  4,
		shutdownChan: make(chan struct{}),
	}
}

// startWorkers starts the worker pool for async event delivery
func (p *TenantEventPublisher) startWorkers() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	logrus.Infof("[events] started %d tenant event workers", p.workerCount)
}

// worker drains the event channel and writes each event to Kafka
func (p *TenantEventPublisher) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case event := <-p.eventChan:
			if err := p.writeEvent(event); err != nil {
				logrus.WithFields(logrus.Fields{
					"worker":    id,
					"kind":      event.Kind,
					"tenant_id": event.TenantID,
				}).Errorf("failed to deliver tenant event: %v", err)
			}
		case <-p.shutdownChan:
			return
		}
	}
}

// Publish builds a snapshot event for the given lifecycle transition and
// queues it for delivery. It returns an error only when the queue is full;
// delivery failures are logged by the workers.
//
// Delivery order across the worker pool is not guaranteed: two events for
// the same tenant may reach the broker out of emission order. Replicas
// reconcile ordering with the event's EmittedAt timestamp, so consumers
// must never assume arrival order equals emission order.
func (p *TenantEventPublisher) Publish(kind EventKind, tenant *models.Tenant) error {
	if _, err := TopicForKind(kind); err != nil {
		return err
	}

	event := NewTenantEvent(kind, tenant)

	select {
	case p.eventChan <- event:
		return nil
	default:
		return fmt.Errorf("tenant event queue full, %s event for tenant %s dropped", kind, tenant.ID)
	}
}

// writeEvent delivers a single event to the topic for its kind, keyed by
// tenant ID.
func (p *TenantEventPublisher) writeEvent(event TenantEvent) error {
	topic, err := TopicForKind(event.Kind)
	if err != nil {
		return err
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal tenant event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(event.TenantID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID.String())},
			{Key: "event_kind", Value: []byte(event.Kind)},
			{Key: "tenant_id", Value: []byte(event.TenantID.String())},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write tenant event to Kafka: %w", err)
	}

	return nil
}

// Close stops the workers, delivers any events still queued, then closes
// the underlying writer.
func (p *TenantEventPublisher) Close() error {
	close(p.shutdownChan)
	p.wg.Wait()

	for {
		select {
		case event := <-p.eventChan:
			if err := p.writeEvent(event); err != nil {
				logrus.WithFields(logrus.Fields{
					"kind":      event.Kind,
					"tenant_id": event.TenantID,
				}).Errorf("failed to deliver tenant event during shutdown: %v", err)
			}
			continue
		default:
		}
		break
	}

	if closer, ok := p.writer.(*kafka.Writer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka writer: %w", err)
		}
	}
	return nil
}
