package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/abgdnv/inventory/internal/errors"
)

var _ ProductStore = (*InMemoryStore)(nil)

// InMemoryStore implements ProductStore using an in-memory map guarded by a single lock.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[int64]Product
	nextID   int64
	now      func() time.Time
}

// NewInMemoryStore creates a new, empty InMemoryStore. IDs start at 1.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		products: make(map[int64]Product),
		nextID:   1,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// FindByID retrieves a product by its ID.
func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, errors.ErrProductNotFound
	}
	return &p, nil
}

// FindAll returns a copy of all products ordered by ID.
func (s *InMemoryStore) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		list = append(list, p)
	}
	// IDs are handed out in insert order, so sorting by ID restores it.
	slices.SortFunc(list, func(a, b Product) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return list, nil
}

// Save inserts a new product or updates an existing one, see ProductStore.Save.
func (s *InMemoryStore) Save(_ context.Context, product Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if product.ID == 0 {
		product.ID = s.nextID
		s.nextID++
		if product.CreatedAt.IsZero() {
			product.CreatedAt = now
		}
		product.SetQuantity(product.Quantity, now)
		s.products[product.ID] = product
		return &product, nil
	}

	existing, ok := s.products[product.ID]
	if !ok {
		return nil, errors.ErrProductNotFound
	}
	existing.Name = product.Name
	existing.SetCategory(product.Category, now)
	existing.SetQuantity(product.Quantity, now)
	existing.SetPrice(product.Price, now)
	s.products[existing.ID] = existing
	return &existing, nil
}

// DeleteByID deletes a product by its ID.
func (s *InMemoryStore) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return errors.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

// SetStock marks a product as in or out of stock, see ProductStore.SetStock.
func (s *InMemoryStore) SetStock(_ context.Context, id int64, inStock bool) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, errors.ErrProductNotFound
	}
	quantity := 0
	if inStock {
		quantity = StockedQuantity
	}
	p.SetQuantity(quantity, s.now())
	s.products[id] = p
	return &p, nil
}
