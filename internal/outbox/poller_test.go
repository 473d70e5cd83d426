package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockPublisher struct {
	mu        sync.Mutex
	Published []*Event
	FailOn    string // aggregate id that fails to publish
}

func (m *MockPublisher) Publish(_ context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOn != "" && event.AggregateID == m.FailOn {
		return errors.New("broker unavailable")
	}
	m.Published = append(m.Published, event)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

type failingStore struct {
	*MemoryStore
}

func (failingStore) GetUnprocessedEvents(context.Context, int) ([]*Event, error) {
	return nil, errors.New("database connection error")
}

func appendEvents(t *testing.T, store *MemoryStore, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, store.Append(context.Background(), Event{
			AggregateID: id,
			EventType:   EventOrderCreated,
			Payload:     json.RawMessage(`{"order_id":"` + id + `"}`),
		}))
	}
}

func TestPoller_PublishesAndMarksEvents(t *testing.T) {
	store := NewMemoryStore()
	appendEvents(t, store, "order-1", "order-2")
	pub := &MockPublisher{}

	p := NewPoller(store, pub, 0, zaptest.NewLogger(t))
	p.processUnpublishedEvents(context.Background())

	require.Len(t, pub.Published, 2)
	assert.Equal(t, "order-1", pub.Published[0].AggregateID)
	assert.Equal(t, "order-2", pub.Published[1].AggregateID)

	pending, _ := store.GetUnprocessedEvents(context.Background(), 10)
	assert.Empty(t, pending)
}

func TestPoller_StopsAtFirstFailure(t *testing.T) {
	store := NewMemoryStore()
	appendEvents(t, store, "order-1", "order-2", "order-3")
	pub := &MockPublisher{FailOn: "order-2"}

	p := NewPoller(store, pub, 0, zaptest.NewLogger(t))
	p.processUnpublishedEvents(context.Background())

	require.Len(t, pub.Published, 1)

	pending, _ := store.GetUnprocessedEvents(context.Background(), 10)
	require.Len(t, pending, 2)
	assert.Equal(t, "order-2", pending[0].AggregateID)

	pub.FailOn = ""
	p.processUnpublishedEvents(context.Background())
	assert.Len(t, pub.Published, 3)
}

func TestPoller_StoreErrorIsHandled(t *testing.T) {
	pub := &MockPublisher{}
	p := NewPoller(failingStore{NewMemoryStore()}, pub, 0, zaptest.NewLogger(t))

	p.processUnpublishedEvents(context.Background())
	assert.Empty(t, pub.Published)
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	store := NewMemoryStore()
	p := NewPoller(store, &MockPublisher{}, 10_000_000, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
}
