package models

// Category describes one product category as reported by the remote catalog.
// The URL doubles as the endpoint serving that category's products.
type Category struct {
	Slug string `json:"slug,omitempty"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is an immutable snapshot of one catalog item as received from the
// remote source.
type Product struct {
	ID                 int      `json:"id"`
	Title              string   `json:"title"`
	Price              float64  `json:"price"`
	DiscountPercentage float64  `json:"discountPercentage"`
	Description        string   `json:"description"`
	Category           string   `json:"category"`
	Images             []string `json:"images"`
	Rating             Rating   `json:"rating"`
}

// CartLine is a product snapshot decorated with cart-only fields. There is at
// most one line per product id and Quantity is never below 1.
type CartLine struct {
	Product
	Quantity int   `json:"quantity"`
	AddedAt  int64 `json:"timestamp"`
}

// ProductPage is one page of the remote catalog listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// Filter narrows the catalog listing to a search query or a single category.
// The zero value means the unfiltered listing.
type Filter struct {
	Query       string `json:"query"`
	CategoryURL string `json:"categoryUrl"`
}

// State is a point-in-time copy of everything the storage holds. Mutating a
// State never affects the storage it came from.
type State struct {
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Total      int        `json:"total"`
	Products   []Product  `json:"products"`
	Categories []Category `json:"categories"`
	Cart       []CartLine `json:"cart"`
	Filter     Filter     `json:"filter"`
	Loading    bool       `json:"loading"`
	Error      string     `json:"error,omitempty"`
}

// CartView is the cart with its derived totals. Gross sums price*quantity,
// Net applies each line's discount percentage before summing. Rounding is
// left to the presentation layer.
type CartView struct {
	Lines []CartLine `json:"lines"`
	Gross float64    `json:"gross"`
	Net   float64    `json:"net"`
}
