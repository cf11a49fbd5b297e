package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/R3E-Network/storefront/internal/app"
	"github.com/R3E-Network/storefront/internal/app/domain/recommendation"
)

// RecommendationsStrip shows the container's recommendation list. Load
// failures are never shown; the previous list stays on screen.
type RecommendationsStrip struct {
	c      Container
	styles Styles
	max    int

	lc   lifecycle
	list []recommendation.Recommendation
}

// NewRecommendationsStrip shows at most max entries (all when max <= 0).
func NewRecommendationsStrip(c Container, max int) *RecommendationsStrip {
	return &RecommendationsStrip{c: c, styles: DefaultStyles(), max: max}
}

// Mount subscribes and triggers a load.
func (r *RecommendationsStrip) Mount(ctx context.Context) error {
	gen := r.lc.begin()
	r.lc.apply(gen, func() { r.list = r.c.Snapshot().Recommendations })
	r.lc.subscribe(r.c, func(s app.Snapshot) {
		r.lc.apply(gen, func() { r.list = s.Recommendations })
	})
	r.c.LoadRecommendations(ctx)
	return nil
}

// Unmount drops the subscription.
func (r *RecommendationsStrip) Unmount() { r.lc.end() }

// Render writes the strip. Nothing is written for an empty list.
func (r *RecommendationsStrip) Render(w io.Writer) error {
	r.lc.mu.Lock()
	list := r.list
	r.lc.mu.Unlock()

	if len(list) == 0 {
		return nil
	}
	if r.max > 0 && len(list) > r.max {
		list = list[:r.max]
	}

	var sb strings.Builder
	sb.WriteString(r.styles.Title.Render("Recommended for you") + "\n")
	for _, rec := range list {
		p := rec.Product
		fmt.Fprintf(&sb, "• %s %s", p.Name, r.styles.Price.Render(money(p.Pricing.MinPrice, p.Pricing.Currency)))
		if len(rec.Reasons) > 0 {
			sb.WriteString(" " + r.styles.Muted.Render(rec.Reasons[0]))
		}
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
