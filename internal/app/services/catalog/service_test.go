package catalog

import (
	"context"
	"testing"

	"github.com/R3E-Network/storefront/internal/app/domain/catalog"
	"github.com/R3E-Network/storefront/internal/app/httpapi"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
	"github.com/R3E-Network/storefront/internal/httputil"
	"github.com/R3E-Network/storefront/pkg/logger"
)

func newTestService(t *testing.T) (*Service, *httpapi.Server) {
	t.Helper()
	srv := httpapi.NewServer()
	t.Cleanup(srv.Close)
	client, err := httputil.New(httputil.Config{BaseURL: srv.URL, Logger: logger.NewDiscard()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return New(client, logger.NewDiscard()), srv
}

func TestListProducts_Filter(t *testing.T) {
	svc, srv := newTestService(t)

	products, err := svc.ListProducts(context.Background(), catalog.Filter{Category: "Electronics", MaxPrice: 100, Limit: 5})
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 1 || products[0].ID != "prod_43" {
		t.Fatalf("unexpected products: %#v", products)
	}

	reqs := srv.RequestsTo(httpapi.RouteProducts)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if got := reqs[0].RawQuery(); got != "category=Electronics&limit=5&max_price=100" {
		t.Fatalf("query = %s", got)
	}
}

func TestListProducts_RejectsInvertedRange(t *testing.T) {
	svc, srv := newTestService(t)
	_, err := svc.ListProducts(context.Background(), catalog.Filter{MinPrice: 50, MaxPrice: 10})
	if !sferrors.IsKind(err, sferrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(srv.Requests()) != 0 {
		t.Fatal("validation failure must not reach the server")
	}
}

func TestGetProduct(t *testing.T) {
	svc, _ := newTestService(t)

	p, err := svc.GetProduct(context.Background(), "prod_42")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if p.PrimaryImage() == "" || !p.Supplier.Verified() {
		t.Fatalf("unexpected product: %#v", p)
	}

	_, err = svc.GetProduct(context.Background(), "missing")
	se := sferrors.GetServiceError(err)
	if se == nil || se.Code != sferrors.CodeNotFound || se.Message != "Product not found" {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListCategories(t *testing.T) {
	svc, _ := newTestService(t)
	cats, err := svc.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != 3 || cats[0].Name != "Electronics" || cats[0].Count != 2 {
		t.Fatalf("unexpected categories: %#v", cats)
	}
	if len(cats[0].Subcategories) != 2 {
		t.Fatalf("subcategories = %v", cats[0].Subcategories)
	}
}

func TestSearch_AnonymousOmitsUser(t *testing.T) {
	svc, srv := newTestService(t)

	result, err := svc.Search(context.Background(), "iphones 15 pro max", "", "sid-1")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Count != len(result.Products) || result.Count == 0 {
		t.Fatalf("unexpected result: %#v", result)
	}

	reqs := srv.RequestsTo(httpapi.RouteSearch)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 search request, got %d", len(reqs))
	}
	if got := reqs[0].RawQuery(); got != "q=iphones+15+pro+max&session_id=sid-1" {
		t.Fatalf("query = %s", got)
	}
}

func TestSearch_SignedInCarriesUser(t *testing.T) {
	svc, srv := newTestService(t)
	if _, err := svc.Search(context.Background(), "gloves", "user_1", "sid-1"); err != nil {
		t.Fatalf("search: %v", err)
	}
	q := srv.RequestsTo(httpapi.RouteSearch)[0].Query
	if q.Get("user_id") != "user_1" || q.Get("session_id") != "sid-1" {
		t.Fatalf("query = %v", q)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Search(context.Background(), "   ", "", "sid"); !sferrors.IsKind(err, sferrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
