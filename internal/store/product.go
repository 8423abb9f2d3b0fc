package store

import "time"

// StockedQuantity is the quantity a product is reset to when it is marked as in stock.
const StockedQuantity = 10

// Product represents a product entity in the store.
// InStock always mirrors Quantity > 0; use SetQuantity rather than writing Quantity directly.
type Product struct {
	ID        int64
	Name      string
	Category  string
	Price     float64
	Quantity  int
	InStock   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct creates a product that has not been saved yet (ID 0).
func NewProduct(name, category string, price float64, quantity int) Product {
	now := time.Now().UTC()
	return Product{
		Name:      name,
		Category:  category,
		Price:     price,
		Quantity:  quantity,
		InStock:   quantity > 0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetPrice changes the unit price.
func (p *Product) SetPrice(price float64, at time.Time) {
	p.Price = price
	p.touch(at)
}

// SetCategory changes the grouping category.
func (p *Product) SetCategory(category string, at time.Time) {
	p.Category = category
	p.touch(at)
}

// SetQuantity changes the units on hand and recomputes InStock.
func (p *Product) SetQuantity(quantity int, at time.Time) {
	p.Quantity = quantity
	p.InStock = quantity > 0
	p.touch(at)
}

// touch refreshes UpdatedAt, never moving it before CreatedAt.
func (p *Product) touch(at time.Time) {
	if at.Before(p.CreatedAt) {
		at = p.CreatedAt
	}
	p.UpdatedAt = at
}
