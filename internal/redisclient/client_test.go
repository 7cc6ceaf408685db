package redisclient

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"pos-order-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusChannel(t *testing.T) {
	assert.Equal(t, "bus:partner:42", BusChannel(42))
}

func newTestClient(t *testing.T) *Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Integration test - requires TEST_REDIS_ADDR")
	}

	client, err := NewClient(addr, "", 0, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestProductCache(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.ForgetProduct(ctx, "Cache Burger D"))

	_, found, err := client.GetProductID(ctx, "Cache Burger D")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, client.SetProductID(ctx, "Cache Burger D", 7))

	id, found, err := client.GetProductID(ctx, "Cache Burger D")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(7), id)
}

func TestSendOne(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	sub := client.rdb.Subscribe(ctx, BusChannel(3))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, client.SendOne(ctx, 3, models.BusKindSimpleNotification, models.BusNotification{
		Type: "success", Title: "New Ecommerce Order", Message: "Order ORD-1", Sticky: true,
	}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got models.BusMessage
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, models.BusKindSimpleNotification, got.Kind)
	assert.Equal(t, "Order ORD-1", got.Payload.Message)
}
