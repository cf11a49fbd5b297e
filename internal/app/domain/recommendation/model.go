package recommendation

import "github.com/R3E-Network/storefront/internal/app/domain/catalog"

// Recommendation is a suggested product with server-computed ranking
// signals. Score and confidence are opaque to the client.
type Recommendation struct {
	Product    catalog.Product `json:"product"`
	Score      float64         `json:"score"`
	Confidence float64         `json:"confidence"`
	Reasons    []string        `json:"reasons,omitempty"`
}

// List is returned by both recommendation endpoints.
type List struct {
	Recommendations []Recommendation `json:"recommendations"`
}
