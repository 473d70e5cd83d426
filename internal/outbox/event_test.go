package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopdash/ordercore/domain"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() *domain.Order {
	return &domain.Order{
		ID:            uuid.New(),
		UserID:        "user-1",
		Items:         []domain.OrderItem{{ProductID: 1, Quantity: 2, PriceAtPurchase: 29.99, ItemTotal: 59.98}},
		Status:        domain.OrderStatusCancelled,
		PaymentStatus: domain.PaymentStatusPending,
		TotalAmount:   59.98,
		Currency:      "USD",
		UpdatedAt:     time.Now(),
	}
}

func TestNewOrderEvent(t *testing.T) {
	order := testOrder()

	event, err := NewOrderEvent(EventOrderCancelled, order, domain.OrderStatusPending)
	require.NoError(t, err)

	assert.Equal(t, order.ID.String(), event.AggregateID)
	assert.Equal(t, EventOrderCancelled, event.EventType)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, order.ID.String(), payload["order_id"])
	assert.Equal(t, "cancelled", payload["status"])
	assert.Equal(t, "pending", payload["previous_status"])
	assert.Equal(t, 59.98, payload["total_amount"])
}

func TestKafkaMessage(t *testing.T) {
	event := &Event{ID: 3, AggregateID: "order-1", EventType: EventOrderCreated, Payload: json.RawMessage(`{}`)}

	msg := kafkaMessage(event)
	assert.Equal(t, "order-1", string(msg.Key))
	assert.Equal(t, `{}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, EventOrderCreated, string(msg.Headers[0].Value))
}

func TestAMQPPublishing(t *testing.T) {
	event := &Event{ID: 42, AggregateID: "order-1", EventType: EventOrderStatusChanged, Payload: json.RawMessage(`{"a":1}`)}

	msg := amqpPublishing(event)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "42", msg.MessageId)
	assert.Equal(t, EventOrderStatusChanged, msg.Type)
	assert.Equal(t, "order-1", msg.Headers["aggregate_id"])
	assert.Equal(t, `{"a":1}`, string(msg.Body))
}
