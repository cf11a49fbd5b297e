package catalog

// Image is a product picture.
type Image struct {
	URL       string `json:"url"`
	Alt       string `json:"alt,omitempty"`
	IsPrimary bool   `json:"is_primary,omitempty"`
}

// BulkTier is a quantity-discounted price.
type BulkTier struct {
	MinQuantity int     `json:"min_quantity"`
	Price       float64 `json:"price"`
}

// Pricing is the advertised price range of a product.
type Pricing struct {
	MinPrice    float64    `json:"min_price"`
	MaxPrice    float64    `json:"max_price"`
	Currency    string     `json:"currency"`
	BulkPricing []BulkTier `json:"bulk_pricing,omitempty"`
}

// Supplier carries the trust metadata rendered next to a product.
type Supplier struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Country            string  `json:"country,omitempty"`
	VerificationStatus string  `json:"verification_status,omitempty"`
	TradeAssurance     bool    `json:"trade_assurance,omitempty"`
	ResponseRate       float64 `json:"response_rate,omitempty"`
	Rating             float64 `json:"rating,omitempty"`
}

// Verified reports whether the supplier carries a verification badge.
func (s Supplier) Verified() bool {
	return s.VerificationStatus == "verified"
}

// Product is a catalog entry.
type Product struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	Category         string            `json:"category,omitempty"`
	Subcategory      string            `json:"subcategory,omitempty"`
	Images           []Image           `json:"images,omitempty"`
	Pricing          Pricing           `json:"pricing"`
	MinOrderQuantity int               `json:"min_order_quantity,omitempty"`
	Supplier         Supplier          `json:"supplier"`
	Specifications   map[string]string `json:"specifications,omitempty"`
	Tags             []string          `json:"tags,omitempty"`
	Status           string            `json:"status,omitempty"`
	ViewCount        int               `json:"view_count,omitempty"`
}

// PrimaryImage returns the URL of the primary image, or the first image.
func (p Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// Category is a top-level catalog category with its product count.
type Category struct {
	Name          string   `json:"name"`
	Count         int      `json:"count"`
	Subcategories []string `json:"subcategories,omitempty"`
}

// CategoryList is returned by the categories endpoint.
type CategoryList struct {
	Categories []Category `json:"categories"`
}

// Filter narrows a product listing. Zero values are omitted.
type Filter struct {
	Category string
	Search   string
	MinPrice float64
	MaxPrice float64
	Limit    int
	Skip     int
}

// SearchResult is returned by the search endpoint.
type SearchResult struct {
	Query    string    `json:"query"`
	Products []Product `json:"products"`
	Count    int       `json:"count"`
}
