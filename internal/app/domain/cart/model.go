package cart

import "math"

// Item is one cart line as reported by the server.
type Item struct {
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name,omitempty"`
	ProductImage string  `json:"product_image,omitempty"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	TotalPrice   float64 `json:"total_price,omitempty"`
	Currency     string  `json:"currency,omitempty"`
	SupplierID   string  `json:"supplier_id,omitempty"`
	SupplierName string  `json:"supplier_name,omitempty"`
}

// LineTotal is unit price times quantity.
func (i Item) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Summary is the server-computed aggregate over the cart lines. Total may
// include tax and shipping on top of Subtotal.
type Summary struct {
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Shipping  float64 `json:"shipping"`
	Total     float64 `json:"total"`
	Currency  string  `json:"currency,omitempty"`
	ItemCount int     `json:"item_count"`
}

// Cart is the authoritative server snapshot. Item order is the server's.
type Cart struct {
	ID      string  `json:"id,omitempty"`
	UserID  string  `json:"user_id,omitempty"`
	Items   []Item  `json:"items"`
	Summary Summary `json:"summary"`
}

// Empty reports whether the cart has no lines.
func (c Cart) Empty() bool {
	return len(c.Items) == 0
}

// Clone returns a deep copy.
func (c Cart) Clone() Cart {
	out := c
	if c.Items != nil {
		out.Items = append([]Item(nil), c.Items...)
	}
	return out
}

// Find returns the line for productID.
func (c Cart) Find(productID string) (Item, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return Item{}, false
}

// LineSums returns Σ unit_price·quantity and Σ quantity over the lines.
func (c Cart) LineSums() (float64, int) {
	var amount float64
	var count int
	for _, item := range c.Items {
		amount += item.LineTotal()
		count += item.Quantity
	}
	return amount, count
}

// Drift describes a disagreement between the summary and the lines.
type Drift struct {
	SummarySubtotal  float64
	LineSubtotal     float64
	SummaryItemCount int
	LineItemCount    int
}

// roundingSlack is the largest difference rounding a subtotal to cents can
// introduce, plus room for float error in the line sums.
const roundingSlack = 0.005 + 1e-9

// CheckConsistency compares the summary with the line sums. The server
// rounds the subtotal to cents, so a half-cent either way is not drift.
func (c Cart) CheckConsistency() (Drift, bool) {
	amount, count := c.LineSums()
	d := Drift{
		SummarySubtotal:  c.Summary.Subtotal,
		LineSubtotal:     amount,
		SummaryItemCount: c.Summary.ItemCount,
		LineItemCount:    count,
	}
	ok := count == c.Summary.ItemCount && math.Abs(amount-c.Summary.Subtotal) <= roundingSlack
	return d, ok
}
