package domain

import (
	"strings"
	"time"
)

// Product is a catalog entry. Price is in minor currency units.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     int64     `json:"price"`
	Stock     int64     `json:"stock"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// ProductPatch lists the fields an admin may change. Nil means unchanged.
type ProductPatch struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Price    *int64  `json:"price"`
	Stock    *int64  `json:"stock"`
}

func (p ProductPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return invalidInput("name must not be empty")
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return invalidInput("category must not be empty")
	}
	if p.Price != nil && *p.Price < 0 {
		return invalidInput("price must be >= 0")
	}
	if p.Stock != nil && *p.Stock < 0 {
		return invalidInput("stock must be >= 0")
	}
	return nil
}

// Apply returns a copy of prod with the patch applied. ID is never touched.
func (p ProductPatch) Apply(prod Product) Product {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Category != nil {
		prod.Category = *p.Category
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.Stock != nil {
		prod.Stock = *p.Stock
	}
	return prod
}

type ProductFilter struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

// Matches reports whether prod passes the search and category filters.
func (f ProductFilter) Matches(prod Product) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(prod.Name), strings.ToLower(f.Search)) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(prod.Category, f.Category) {
		return false
	}
	return true
}

// Window returns the [start, end) bounds of the requested page over n items.
// Out of range pages yield an empty window.
func (f ProductFilter) Window(n int) (int, int) {
	if f.Page < 1 || f.Limit < 1 || f.Page-1 > n/f.Limit {
		return n, n
	}
	start := (f.Page - 1) * f.Limit
	if start >= n {
		return n, n
	}
	if f.Limit > n-start {
		return start, n
	}
	return start, start + f.Limit
}

type ProductPage struct {
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Data  []Product `json:"data"`
}
