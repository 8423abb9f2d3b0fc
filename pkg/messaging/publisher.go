package messaging

import (
	"context"
)

const (
	// InventoryStream is the JetStream stream that stores every inventory event.
	InventoryStream = "INVENTORY"
	// InventorySubjects matches all subjects published to InventoryStream.
	InventorySubjects = "inventory.product.>"

	ProductCreatedSubject      = "inventory.product.created"
	ProductUpdatedSubject      = "inventory.product.updated"
	ProductDeletedSubject      = "inventory.product.deleted"
	ProductStockChangedSubject = "inventory.product.stock"
)

type Event interface {
	Subject() string
	// MessageID identifies the event for broker-side deduplication. Empty disables it.
	MessageID() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher discards every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, _ Event) error {
	return nil
}
