package catalog

import (
	"sort"
	"strings"
	"time"
)

const (
	searchLimit  = 6
	similarLimit = 4
)

// Spec is one ordered label/value pair of a product spec sheet.
type Spec struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Product is an immutable catalog record. Products are loaded once at
// startup and never mutated.
type Product struct {
	ID            string    `json:"id" validate:"required"`
	Name          string    `json:"name" validate:"required"`
	Brand         string    `json:"brand"`
	Category      string    `json:"category" validate:"required"`
	Price         float64   `json:"price" validate:"gte=0"`
	OriginalPrice float64   `json:"originalPrice,omitempty" validate:"omitempty,gtefield=Price"`
	Stock         int       `json:"stock" validate:"gte=0"`
	Rating        float64   `json:"rating" validate:"gte=0,lte=5"`
	Reviews       int       `json:"reviews" validate:"gte=0"`
	Description   string    `json:"description"`
	Image         string    `json:"image"`
	Images        []string  `json:"images,omitempty"`
	Specs         []Spec    `json:"specs,omitempty"`
	Features      []string  `json:"features,omitempty"`
	Sale          bool      `json:"sale"`
	Featured      bool      `json:"featured"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Category groups products for browsing.
type Category struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Filter narrows a product listing. The zero value matches everything.
type Filter struct {
	Category string
	MinPrice float64
	MaxPrice float64 // 0 means unbounded
	Featured bool
}

// Sort orders a product listing.
type Sort string

const (
	SortFeatured  Sort = "featured" // catalog order
	SortPriceAsc  Sort = "price-low"
	SortPriceDesc Sort = "price-high"
	SortRating    Sort = "rating"
	SortNewest    Sort = "newest"
)

// Catalog is the static, read-only set of purchasable products and their
// categories. It has no mutation operations; absent results are a valid,
// non-exceptional outcome.
type Catalog struct {
	products   []Product
	categories []Category
	byID       map[string]int
	byCategory map[string]Category
}

// New builds a catalog from pre-validated records, preserving order.
func New(products []Product, categories []Category) *Catalog {
	c := &Catalog{
		products:   products,
		categories: categories,
		byID:       make(map[string]int, len(products)),
		byCategory: make(map[string]Category, len(categories)),
	}
	for i, p := range products {
		if _, exists := c.byID[p.ID]; !exists {
			c.byID[p.ID] = i
		}
	}
	for _, cat := range categories {
		c.byCategory[cat.ID] = cat
	}
	return c
}

// FindByID returns the product with the given id.
func (c *Catalog) FindByID(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// FindCategory returns the category with the given id.
func (c *Catalog) FindCategory(id string) (Category, bool) {
	cat, ok := c.byCategory[id]
	return cat, ok
}

// Categories returns all categories in catalog order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// List returns products matching the filter, ordered by the given sort.
// Ties keep catalog order.
func (c *Catalog) List(f Filter, s Sort) []Product {
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if p.Price < f.MinPrice {
			continue
		}
		if f.MaxPrice > 0 && p.Price > f.MaxPrice {
			continue
		}
		if f.Featured && !p.Featured {
			continue
		}
		out = append(out, p)
	}

	switch s {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out
}

// Search returns products whose name, brand, description or category name
// contains the query, case-insensitively. Results keep catalog order (no
// relevance ranking) and are capped at 6.
func (c *Catalog) Search(query string) []Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var out []Product
	for _, p := range c.products {
		if c.matches(p, query) {
			out = append(out, p)
			if len(out) == searchLimit {
				break
			}
		}
	}
	return out
}

func (c *Catalog) matches(p Product, query string) bool {
	if strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Brand), query) ||
		strings.Contains(strings.ToLower(p.Description), query) {
		return true
	}
	if cat, ok := c.byCategory[p.Category]; ok {
		return strings.Contains(strings.ToLower(cat.Name), query)
	}
	return false
}

// Similar returns up to 4 products sharing the given product's category,
// excluding the product itself.
func (c *Catalog) Similar(id string) []Product {
	p, ok := c.FindByID(id)
	if !ok {
		return nil
	}

	var out []Product
	for _, other := range c.products {
		if other.Category == p.Category && other.ID != id {
			out = append(out, other)
			if len(out) == similarLimit {
				break
			}
		}
	}
	return out
}
