// Package store provides an interface for product storage operations.
package store

import "context"

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindAll returns a snapshot of all products in insertion order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// Save inserts the product when its ID is 0, assigning a new ID.
	// Otherwise it copies name, category, quantity and price onto the stored product with that ID.
	// Returns ErrProductNotFound if the ID is not 0 and no product exists with it.
	Save(ctx context.Context, product Product) (*Product, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// SetStock resets the quantity to StockedQuantity when inStock is true and to 0 otherwise.
	// Returns ErrProductNotFound if no product exists with the given ID.
	SetStock(ctx context.Context, id int64, inStock bool) (*Product, error)
}
