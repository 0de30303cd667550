package storefront

// Product is a catalog entry offered for checkout. Price is in major currency units.
type Product struct {
	ID          string
	Name        string
	Description string
	Image       string
	Price       float64
}

// Catalog holds the static product listing served by the storefront.
type Catalog struct {
	products []Product
	byID     map[string]Product
}

// NewCatalog returns the default gold bullion catalog.
func NewCatalog() *Catalog {
	return NewCatalogWith([]Product{
		{
			ID:          "1",
			Name:        "1oz Gold Bar",
			Description: "999.9 Fine Gold LBMA Certified",
			Image:       "https://images.unsplash.com/photo-1610375461246-83df859d849d?auto=format&fit=crop&w=800&q=80",
			Price:       2050.00,
		},
		{
			ID:          "2",
			Name:        "American Gold Eagle",
			Description: "1oz American Eagle Gold Coin 2024",
			Image:       "https://images.unsplash.com/photo-1624365169364-0640dd10e180?auto=format&fit=crop&w=800&q=80",
			Price:       2150.00,
		},
		{
			ID:          "3",
			Name:        "100g Gold Bar",
			Description: "PAMP Suisse 100g Gold Bar",
			Image:       "https://images.unsplash.com/photo-1618403088890-3d9ff6f4c8b1?auto=format&fit=crop&w=800&q=80",
			Price:       6500.00,
		},
	})
}

// NewCatalogWith builds a catalog over the provided products.
func NewCatalogWith(products []Product) *Catalog {
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &Catalog{
		products: products,
		byID:     byID,
	}
}

// Products returns the catalog listing in display order.
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Product looks up a catalog entry by id.
func (c *Catalog) Product(id string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	p, ok := c.byID[id]
	return p, ok
}
