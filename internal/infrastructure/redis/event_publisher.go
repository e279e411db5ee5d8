// Package redis publica los eventos del libro de stock en un canal Redis Pub/Sub.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/pkg/config"
)

var _ inventory.EventPublisher = (*EventPublisher)(nil)

// pubsub lo cumple *goredis.Client.
type pubsub interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
}

// EventPublisher serializa LedgerEvent en JSON y lo publica en el canal configurado.
type EventPublisher struct {
	client  pubsub
	channel string
}

// NewClient abre el cliente y verifica la conexión con PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewEventPublisher construye el publicador sobre un cliente ya abierto.
func NewEventPublisher(client pubsub, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

// Publish envía el evento. Sin suscriptores no es error.
func (p *EventPublisher) Publish(ctx context.Context, event inventory.LedgerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", event.MovementID, err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publicar evento %s: %w", event.MovementID, err)
	}
	return nil
}
