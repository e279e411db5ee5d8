package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

type fakePubSub struct {
	channel string
	payload []byte
	err     error
}

func (f *fakePubSub) Publish(ctx context.Context, channel string, message any) *goredis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	cmd := goredis.NewIntCmd(ctx, "publish", channel, message)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(0)
	}
	return cmd
}

func TestPublish_SerializaEvento(t *testing.T) {
	fake := &fakePubSub{}
	p := NewEventPublisher(fake, "stock.ledger.events")
	ev := inventory.LedgerEvent{
		Event:        inventory.EventMovementApplied,
		CompanyID:    "c-1",
		MovementID:   "m-1",
		MovementType: entity.MovementTypeVenta,
		BatchIDs:     []string{"b-1"},
		Quantity:     decimal.NewFromInt(4),
		OccurredAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	require.NoError(t, p.Publish(context.Background(), ev))
	assert.Equal(t, "stock.ledger.events", fake.channel)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fake.payload, &got))
	assert.Equal(t, "stock.movement.applied", got["event"])
	assert.Equal(t, "VENTA", got["movement_type"])
	assert.Equal(t, "4", got["quantity"])
}

func TestPublish_ErrorDelCliente(t *testing.T) {
	p := NewEventPublisher(&fakePubSub{err: errors.New("conexión rechazada")}, "canal")
	err := p.Publish(context.Background(), inventory.LedgerEvent{MovementID: "m-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "m-1")
}
