// Package metrics computes read-only inventory statistics over a snapshot of products.
package metrics

import (
	"slices"
	"strings"

	"github.com/abgdnv/inventory/internal/store"
)

// InventoryMetrics is the summary returned by Summarize.
// Money and ratio figures only cover products that are in stock.
type InventoryMetrics struct {
	TotalProducts       int               `json:"totalProducts"`
	TotalInStock        int               `json:"totalProductsInStock"`
	TotalOutOfStock     int               `json:"totalProductsOutOfStock"`
	TotalInventoryValue float64           `json:"totalInventoryValue"`
	AveragePrice        float64           `json:"averagePrice"`
	MetricsByCategory   []CategoryMetrics `json:"metricsByCategory"`
}

// CategoryMetrics holds the in-stock statistics of a single category.
type CategoryMetrics struct {
	Category             string  `json:"category"`
	TotalProductsInStock int     `json:"totalProductsInStock"`
	TotalInventoryValue  float64 `json:"totalInventoryValue"`
	AveragePrice         float64 `json:"averagePrice"`
}

type accumulator struct {
	count    int
	value    float64
	priceSum float64
}

func (a *accumulator) add(p store.Product) {
	a.count++
	a.value += p.Price * float64(p.Quantity)
	a.priceSum += p.Price
}

func (a *accumulator) average() float64 {
	if a.count == 0 {
		return 0
	}
	return a.priceSum / float64(a.count)
}

// Summarize aggregates the given products. Categories are returned in ascending order.
func Summarize(products []store.Product) InventoryMetrics {
	var total accumulator
	byCategory := make(map[string]*accumulator)

	for _, p := range products {
		if p.Quantity <= 0 {
			continue
		}
		total.add(p)
		acc, ok := byCategory[p.Category]
		if !ok {
			acc = &accumulator{}
			byCategory[p.Category] = acc
		}
		acc.add(p)
	}

	categories := make([]CategoryMetrics, 0, len(byCategory))
	for category, acc := range byCategory {
		categories = append(categories, CategoryMetrics{
			Category:             category,
			TotalProductsInStock: acc.count,
			TotalInventoryValue:  acc.value,
			AveragePrice:         acc.average(),
		})
	}
	slices.SortFunc(categories, func(a, b CategoryMetrics) int {
		return strings.Compare(a.Category, b.Category)
	})

	return InventoryMetrics{
		TotalProducts:       len(products),
		TotalInStock:        total.count,
		TotalOutOfStock:     len(products) - total.count,
		TotalInventoryValue: total.value,
		AveragePrice:        total.average(),
		MetricsByCategory:   categories,
	}
}
