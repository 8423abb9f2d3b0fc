package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/inventory/pkg/messaging"
)

// ProductEventType tells consumers what happened to a product.
type ProductEventType string

const (
	ProductCreated      ProductEventType = "created"
	ProductUpdated      ProductEventType = "updated"
	ProductDeleted      ProductEventType = "deleted"
	ProductStockChanged ProductEventType = "stock_changed"
)

// ProductEvent is published after every successful product mutation.
// Carrier holds the W3C trace context of the request that caused it.
type ProductEvent struct {
	EventID    string            `json:"event_id"`
	Carrier    map[string]string `json:"carrier,omitempty"`
	Type       ProductEventType  `json:"type"`
	ProductID  int64             `json:"product_id"`
	Name       string            `json:"name,omitempty"`
	Category   string            `json:"category,omitempty"`
	Price      float64           `json:"price"`
	Quantity   int               `json:"quantity"`
	InStock    bool              `json:"in_stock"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func (e ProductEvent) Subject() string {
	switch e.Type {
	case ProductCreated:
		return messaging.ProductCreatedSubject
	case ProductDeleted:
		return messaging.ProductDeletedSubject
	case ProductStockChanged:
		return messaging.ProductStockChangedSubject
	default:
		return messaging.ProductUpdatedSubject
	}
}

// MessageID is used by the broker to drop duplicate deliveries of the same event.
func (e ProductEvent) MessageID() string {
	return e.EventID
}

func (e ProductEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
