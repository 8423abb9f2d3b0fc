package service

import (
	"cmp"
	"slices"
	"strings"

	"github.com/abgdnv/inventory/internal/store"
)

// Sort keys accepted by ListQuery.SortBy.
const (
	SortByID         = "id"
	SortByName       = "name"
	SortByCategory   = "category"
	SortByPrice      = "price"
	SortByQuantity   = "quantity"
	SortByInStock    = "inStock"
	SortByUpdateDate = "updateDate"
)

// Sort orders accepted by ListQuery.Order.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListQuery narrows and orders the product list. The zero value returns everything in insertion order.
type ListQuery struct {
	// Name matches products whose name contains it, ignoring case.
	Name string `query:"name" validate:"omitempty,max=100"`
	// Categories matches products in any of the listed categories.
	Categories []string `query:"category"`
	// InStock, when set, matches products with the same availability.
	InStock *bool  `query:"inStock"`
	SortBy  string `query:"sort" validate:"omitempty,oneof=id name category price quantity inStock updateDate"`
	Order   string `query:"order" validate:"omitempty,oneof=asc desc"`
}

// Apply filters and sorts products in place and returns the retained prefix.
func (q ListQuery) Apply(products []store.Product) []store.Product {
	name := strings.ToLower(q.Name)
	products = slices.DeleteFunc(products, func(p store.Product) bool {
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			return true
		}
		if len(q.Categories) > 0 && !slices.Contains(q.Categories, p.Category) {
			return true
		}
		return q.InStock != nil && p.InStock != *q.InStock
	})

	if (q.SortBy == "" || q.SortBy == SortByID) && q.Order != OrderDesc {
		return products
	}
	slices.SortStableFunc(products, q.compare())
	return products
}

// compare orders by the selected key and breaks ties by ascending ID.
func (q ListQuery) compare() func(a, b store.Product) int {
	var byKey func(a, b store.Product) int
	switch q.SortBy {
	case SortByName:
		byKey = func(a, b store.Product) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortByCategory:
		byKey = func(a, b store.Product) int {
			return strings.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category))
		}
	case SortByPrice:
		byKey = func(a, b store.Product) int { return cmp.Compare(a.Price, b.Price) }
	case SortByQuantity:
		byKey = func(a, b store.Product) int { return cmp.Compare(a.Quantity, b.Quantity) }
	case SortByInStock:
		byKey = func(a, b store.Product) int { return cmp.Compare(boolRank(a.InStock), boolRank(b.InStock)) }
	case SortByUpdateDate:
		byKey = func(a, b store.Product) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	default:
		byKey = func(a, b store.Product) int { return cmp.Compare(a.ID, b.ID) }
	}

	descending := q.Order == OrderDesc
	return func(a, b store.Product) int {
		c := byKey(a, b)
		if descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// distinctCategories returns the non-empty categories of products in ascending order.
func distinctCategories(products []store.Product) []string {
	categories := make([]string, 0)
	for _, p := range products {
		if p.Category != "" {
			categories = append(categories, p.Category)
		}
	}
	slices.Sort(categories)
	return slices.Compact(categories)
}
