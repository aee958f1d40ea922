package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event is the wire form of a partition-level notification: invoices
// finalized or paid, subscriptions renewed or suspended, accounts created.
type Event struct {
	Kind       string    `json:"kind"`
	TenantID   uuid.UUID `json:"tenant_id"`
	ResourceID uuid.UUID `json:"resource_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	EventInvoiceFinalized      = "invoice.finalized"
	EventInvoicePaid           = "invoice.paid"
	EventSubscriptionRenewed   = "subscription.renewed"
	EventSubscriptionSuspended = "subscription.suspended"
	EventAccountCreated        = "account.created"
)

type PubSub struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &PubSub{client: client}, nil
}

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

// PublishEvent sends an event on its partition's channel. Consumers inside
// the partition (dashboards, notification workers) subscribe per tenant.
func (ps *PubSub) PublishEvent(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis.PubSub.PublishEvent: marshal: %w", err)
	}

	if err := ps.client.Publish(ctx, TenantChannel(ev.TenantID), payload).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.PublishEvent: %w", err)
	}
	return nil
}

func (ps *PubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan []byte, 64)
	redisCh := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cleanup := func() {
		_ = sub.Close()
	}

	return out, cleanup, nil
}

// TenantChannel returns the Redis channel name for partition-wide events.
func TenantChannel(tenantID uuid.UUID) string {
	return "tenant:" + tenantID.String()
}

// InvoiceChannel returns the Redis channel name for a single invoice's
// lifecycle events.
func InvoiceChannel(tenantID, invoiceID uuid.UUID) string {
	return "invoice:" + tenantID.String() + ":" + invoiceID.String()
}
