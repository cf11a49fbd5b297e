// Package catalog reads products, categories and search results. Nothing
// is cached: every call goes to the server.
package catalog

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/R3E-Network/storefront/internal/app/domain/catalog"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
	"github.com/R3E-Network/storefront/internal/httputil"
	"github.com/R3E-Network/storefront/pkg/logger"
)

// API is the subset of the HTTP client the catalog service needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values, token string, out any) error
}

// Service issues catalog reads.
type Service struct {
	api API
	log *logger.Logger
}

// New constructs the catalog service.
func New(api API, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{api: api, log: log}
}

// ListProducts returns products matching filter in server order.
func (s *Service) ListProducts(ctx context.Context, filter catalog.Filter) ([]catalog.Product, error) {
	if filter.MinPrice < 0 || filter.MaxPrice < 0 {
		return nil, sferrors.Validation("price", "must not be negative")
	}
	if filter.MaxPrice > 0 && filter.MinPrice > filter.MaxPrice {
		return nil, sferrors.Validation("min_price", "must not exceed max_price")
	}

	var products []catalog.Product
	if err := s.api.Get(ctx, "/api/products", filterQuery(filter), "", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns one product.
func (s *Service) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return catalog.Product{}, sferrors.Validation("product_id", "is required")
	}
	var p catalog.Product
	if err := s.api.Get(ctx, "/api/products/"+httputil.PathEscape(id), nil, "", &p); err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

// ListCategories returns the category tree with product counts.
func (s *Service) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var list catalog.CategoryList
	if err := s.api.Get(ctx, "/api/categories", nil, "", &list); err != nil {
		return nil, err
	}
	return list.Categories, nil
}

// Search runs a free-text query. userID is omitted when empty so anonymous
// searches carry only the session.
func (s *Service) Search(ctx context.Context, query, userID, sessionID string) (catalog.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return catalog.SearchResult{}, sferrors.Validation("q", "is required")
	}

	params := url.Values{}
	params.Set("q", query)
	if userID != "" {
		params.Set("user_id", userID)
	}
	if sessionID != "" {
		params.Set("session_id", sessionID)
	}

	var result catalog.SearchResult
	if err := s.api.Get(ctx, "/api/search", params, "", &result); err != nil {
		return catalog.SearchResult{}, err
	}
	if result.Products == nil {
		result.Products = []catalog.Product{}
	}
	if result.Count != len(result.Products) {
		s.log.WithField("count", result.Count).WithField("returned", len(result.Products)).
			Debug("search count differs from returned products")
	}
	return result, nil
}

func filterQuery(f catalog.Filter) url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.MinPrice > 0 {
		q.Set("min_price", strconv.FormatFloat(f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice > 0 {
		q.Set("max_price", strconv.FormatFloat(f.MaxPrice, 'f', -1, 64))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Skip > 0 {
		q.Set("skip", strconv.Itoa(f.Skip))
	}
	return q
}
