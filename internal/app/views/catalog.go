package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/R3E-Network/storefront/internal/app/domain/catalog"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
)

// CatalogGrid lists products, optionally restricted to one category.
type CatalogGrid struct {
	c      Container
	styles Styles
	filter catalog.Filter

	lc       lifecycle
	products []catalog.Product
	errMsg   string
}

// NewCatalogGrid builds a grid for filter.
func NewCatalogGrid(c Container, filter catalog.Filter) *CatalogGrid {
	return &CatalogGrid{c: c, styles: DefaultStyles(), filter: filter}
}

// Mount fetches the listing. Category listings are tracked as category views.
func (g *CatalogGrid) Mount(ctx context.Context) error {
	gen := g.lc.begin()

	var (
		products []catalog.Product
		err      error
	)
	if g.filter.Category != "" && g.filter.Search == "" {
		products, err = g.c.BrowseCategory(ctx, g.filter.Category, g.filter.Limit)
	} else {
		products, err = g.c.ListProducts(ctx, g.filter)
	}

	g.lc.apply(gen, func() {
		if err != nil {
			g.errMsg = sferrors.UserMessage(err)
			return
		}
		g.products, g.errMsg = products, ""
	})
	return err
}

// Unmount discards any fetch still in flight.
func (g *CatalogGrid) Unmount() { g.lc.end() }

// Products returns the rendered listing.
func (g *CatalogGrid) Products() []catalog.Product {
	g.lc.mu.Lock()
	defer g.lc.mu.Unlock()
	return append([]catalog.Product(nil), g.products...)
}

// Render writes the grid.
func (g *CatalogGrid) Render(w io.Writer) error {
	g.lc.mu.Lock()
	products, errMsg := g.products, g.errMsg
	g.lc.mu.Unlock()

	title := "Products"
	if g.filter.Category != "" {
		title = g.filter.Category
	}
	if errMsg != "" {
		_, err := fmt.Fprintln(w, g.styles.Banner.Render(errMsg))
		return err
	}
	_, err := io.WriteString(w, productTable(g.styles, title, products))
	return err
}

func productTable(styles Styles, title string, products []catalog.Product) string {
	if len(products) == 0 {
		return styles.Title.Render(title) + "\n" + styles.Muted.Render("No products found") + "\n"
	}
	t := newTable(title, "ID", "NAME", "PRICE", "MOQ", "SUPPLIER")
	for _, p := range products {
		t.add(p.ID, p.Name,
			priceRange(p.Pricing.MinPrice, p.Pricing.MaxPrice, p.Pricing.Currency),
			moq(p.MinOrderQuantity),
			supplierLabel(styles, p.Supplier))
	}
	return t.render(styles)
}

func moq(n int) string {
	if n <= 1 {
		return "1"
	}
	return strconv.Itoa(n)
}

func supplierLabel(styles Styles, s catalog.Supplier) string {
	var badges []string
	if s.Verified() {
		badges = append(badges, "verified")
	}
	if s.TradeAssurance {
		badges = append(badges, "trade assurance")
	}
	if len(badges) == 0 {
		return s.Name
	}
	return s.Name + " " + styles.Badge.Render("["+strings.Join(badges, ", ")+"]")
}

// SearchResults runs a query on mount and lists what came back.
type SearchResults struct {
	c      Container
	styles Styles
	query  string

	lc     lifecycle
	result catalog.SearchResult
	errMsg string
}

// NewSearchResults builds a results view for query.
func NewSearchResults(c Container, query string) *SearchResults {
	return &SearchResults{c: c, styles: DefaultStyles(), query: query}
}

// Mount issues the search.
func (s *SearchResults) Mount(ctx context.Context) error {
	gen := s.lc.begin()
	res, err := s.c.Search(ctx, s.query)
	s.lc.apply(gen, func() {
		if err != nil {
			s.errMsg = sferrors.UserMessage(err)
			return
		}
		s.result, s.errMsg = res, ""
	})
	return err
}

// Unmount discards any search still in flight.
func (s *SearchResults) Unmount() { s.lc.end() }

// Result returns the last applied result.
func (s *SearchResults) Result() catalog.SearchResult {
	s.lc.mu.Lock()
	defer s.lc.mu.Unlock()
	return s.result
}

// Render writes the results.
func (s *SearchResults) Render(w io.Writer) error {
	s.lc.mu.Lock()
	res, errMsg := s.result, s.errMsg
	s.lc.mu.Unlock()

	if errMsg != "" {
		_, err := fmt.Fprintln(w, s.styles.Banner.Render(errMsg))
		return err
	}
	title := fmt.Sprintf("%d results for %q", len(res.Products), s.query)
	_, err := io.WriteString(w, productTable(s.styles, title, res.Products))
	return err
}
