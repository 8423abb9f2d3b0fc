// Package service provides the implementation of inventory business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	producterrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/metrics"
	"github.com/abgdnv/inventory/internal/store"
	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/abgdnv/inventory/pkg/messaging/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "inventory-service"

// ProductService defines the methods for managing the inventory.
// It is the only entry point the transport layer talks to.
type ProductService interface {
	// FindAll returns the products matching the query, in insertion order unless the query sorts.
	// Returns an empty slice if no products match.
	FindAll(ctx context.Context, query ListQuery) ([]ProductDto, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*ProductDto, error)

	// Categories returns the distinct non-empty categories in ascending order.
	Categories(ctx context.Context) ([]string, error)

	// Create adds a new product. Any ID the caller had in mind is ignored.
	Create(ctx context.Context, product ProductRequestDto) (*ProductDto, error)

	// Update replaces name, category, price and quantity of an existing product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id int64, product ProductRequestDto) (*ProductDto, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// MarkOutOfStock sets the quantity of a product to 0.
	// Returns ErrProductNotFound if no product exists with the given ID.
	MarkOutOfStock(ctx context.Context, id int64) error

	// MarkInStock resets the quantity of a product to store.StockedQuantity.
	// Returns ErrProductNotFound if no product exists with the given ID.
	MarkInStock(ctx context.Context, id int64) error

	// Metrics summarizes the current inventory.
	Metrics(ctx context.Context) (*metrics.InventoryMetrics, error)
}

// Service implements ProductService on top of a ProductStore.
type Service struct {
	repository   store.ProductStore
	publisher    messaging.Publisher
	logger       *slog.Logger
	tracer       trace.Tracer
	createdCount metric.Int64Counter
	deletedCount metric.Int64Counter
	stockChanges metric.Int64Counter
}

// NewService creates a new instance of ProductService with the provided repository and event publisher.
func NewService(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter(instrumentationName)
	createdCount, err := meter.Int64Counter("inventory_products_created", metric.WithDescription("Total number of created products"))
	if err != nil {
		panic(fmt.Sprintf("failed to create inventory_products_created counter: %v", err))
	}
	deletedCount, err := meter.Int64Counter("inventory_products_deleted", metric.WithDescription("Total number of deleted products"))
	if err != nil {
		panic(fmt.Sprintf("failed to create inventory_products_deleted counter: %v", err))
	}
	stockChanges, err := meter.Int64Counter("inventory_stock_changes", metric.WithDescription("Total number of in/out of stock transitions"))
	if err != nil {
		panic(fmt.Sprintf("failed to create inventory_stock_changes counter: %v", err))
	}
	return &Service{
		repository:   repo,
		publisher:    publisher,
		logger:       logger.With("component", "service"),
		tracer:       otel.Tracer(instrumentationName),
		createdCount: createdCount,
		deletedCount: deletedCount,
		stockChanges: stockChanges,
	}
}

// ProductRequestDto is the body of create and update requests.
// Only field presence is validated; pointers tell a missing field apart from a zero value.
type ProductRequestDto struct {
	Name     *string  `json:"name"     validate:"required"`
	Category string   `json:"category"`
	Price    *float64 `json:"price"    validate:"required"`
	Quantity *int     `json:"quantity" validate:"required"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	InStock      bool    `json:"inStock"`
	CreationDate string  `json:"creationDate"`
	UpdateDate   string  `json:"updateDate"`
}

// FindAll retrieves the products matching the query and returns them as ProductDTOs.
func (s *Service) FindAll(ctx context.Context, query ListQuery) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	products = query.Apply(products)

	productDTOs := make([]ProductDto, len(products))
	for i, item := range products {
		productDTOs[i] = *toDto(&item)
	}
	return productDTOs, nil
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
func (s *Service) FindByID(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return toDto(product), nil
}

// Categories returns the distinct categories of all products.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return distinctCategories(products), nil
}

// Create creates a new product and returns it as a ProductDto.
func (s *Service) Create(ctx context.Context, product ProductRequestDto) (*ProductDto, error) {
	p := toProduct(product)
	p.ID = 0
	created, err := s.repository.Save(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.createdCount.Add(ctx, 1)
	s.publish(ctx, events.ProductCreated, created)
	return toDto(created), nil
}

// Update modifies an existing product and returns the updated product as a ProductDto.
// An unknown ID is reported as ErrProductNotFound; it never creates a product.
func (s *Service) Update(ctx context.Context, id int64, product ProductRequestDto) (*ProductDto, error) {
	if id <= 0 {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", id, producterrors.ErrProductNotFound)
	}
	p := toProduct(product)
	p.ID = id
	updated, err := s.repository.Save(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", id, err)
	}
	s.publish(ctx, events.ProductUpdated, updated)
	return toDto(updated), nil
}

// DeleteByID deletes a product by its ID.
func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	if err := s.repository.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product with ID %d: %w", id, err)
	}
	s.deletedCount.Add(ctx, 1)
	s.publish(ctx, events.ProductDeleted, &store.Product{ID: id})
	return nil
}

// MarkOutOfStock sets the quantity of a product to 0.
func (s *Service) MarkOutOfStock(ctx context.Context, id int64) error {
	return s.setStock(ctx, id, false)
}

// MarkInStock resets the quantity of a product to store.StockedQuantity.
func (s *Service) MarkInStock(ctx context.Context, id int64) error {
	return s.setStock(ctx, id, true)
}

func (s *Service) setStock(ctx context.Context, id int64, inStock bool) error {
	updated, err := s.repository.SetStock(ctx, id, inStock)
	if err != nil {
		return fmt.Errorf("failed to set stock of product with ID %d: %w", id, err)
	}
	s.stockChanges.Add(ctx, 1, metric.WithAttributes(attribute.Bool("in_stock", inStock)))
	s.publish(ctx, events.ProductStockChanged, updated)
	return nil
}

// Metrics summarizes a snapshot of the inventory.
func (s *Service) Metrics(ctx context.Context) (*metrics.InventoryMetrics, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Metrics")
	defer span.End()

	products, err := s.repository.FindAll(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	summary := metrics.Summarize(products)
	span.SetAttributes(
		attribute.Int("inventory.products", summary.TotalProducts),
		attribute.Int("inventory.categories", len(summary.MetricsByCategory)),
	)
	return &summary, nil
}

// publish sends a product event carrying the current trace context.
// The mutation has already happened, so a failure is only logged.
func (s *Service) publish(ctx context.Context, eventType events.ProductEventType, p *store.Product) {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.ProductEvent{
		EventID:    uuid.NewString(),
		Carrier:    carrier,
		Type:       eventType,
		ProductID:  p.ID,
		Name:       p.Name,
		Category:   p.Category,
		Price:      p.Price,
		Quantity:   p.Quantity,
		InStock:    p.InStock,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish product event", "type", eventType, "ID", p.ID, "error", err)
	}
}

// toProduct converts a request into an unsaved store.Product.
func toProduct(dto ProductRequestDto) store.Product {
	var name string
	if dto.Name != nil {
		name = *dto.Name
	}
	var price float64
	if dto.Price != nil {
		price = *dto.Price
	}
	var quantity int
	if dto.Quantity != nil {
		quantity = *dto.Quantity
	}
	return store.NewProduct(name, dto.Category, price, quantity)
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:           product.ID,
		Name:         product.Name,
		Category:     product.Category,
		Price:        product.Price,
		Quantity:     product.Quantity,
		InStock:      product.InStock,
		CreationDate: product.CreatedAt.Format(time.RFC3339),
		UpdateDate:   product.UpdatedAt.Format(time.RFC3339),
	}
}
