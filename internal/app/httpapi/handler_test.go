package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/R3E-Network/storefront/internal/app/domain/cart"
	"github.com/R3E-Network/storefront/internal/app/domain/catalog"
	"github.com/R3E-Network/storefront/internal/app/domain/user"
)

func getJSON(t *testing.T, target string, token string, out any) int {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", target, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestAuthFlow(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	body, _ := json.Marshal(user.Credentials{Email: "buyer@example.com", Password: "pw", FullName: "Buyer"})
	resp, err := http.Post(srv.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	var auth user.AuthResponse
	json.NewDecoder(resp.Body).Decode(&auth)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || auth.Token == "" || auth.User.ID == "" {
		t.Fatalf("unexpected register response: %d %#v", resp.StatusCode, auth)
	}

	var verified user.VerifyResponse
	if status := getJSON(t, srv.URL+"/api/auth/verify", auth.Token, &verified); status != http.StatusOK {
		t.Fatalf("verify status = %d", status)
	}
	if verified.User.Email != "buyer@example.com" {
		t.Fatalf("verify user = %#v", verified.User)
	}
	if status := getJSON(t, srv.URL+"/api/auth/verify", "bogus", nil); status != http.StatusUnauthorized {
		t.Fatalf("bogus token status = %d, want 401", status)
	}
}

func TestCartSummaryIsComputedServerSide(t *testing.T) {
	srv := NewServer()
	defer srv.Close()
	u, token := srv.SeedUser("buyer@example.com", "pw", "Buyer")

	for _, q := range []url.Values{
		{"product_id": {"prod_42"}, "quantity": {"1"}},
		{"product_id": {"prod_43"}, "quantity": {"10"}},
		{"product_id": {"prod_42"}, "quantity": {"2"}},
	} {
		resp, err := http.Post(srv.URL+"/api/cart/"+u.ID+"/items?"+q.Encode(), "", nil)
		if err != nil || resp.StatusCode != http.StatusOK {
			t.Fatalf("add %v: %v %v", q, err, resp.StatusCode)
		}
		resp.Body.Close()
	}

	var c cart.Cart
	getJSON(t, srv.URL+"/api/cart/"+u.ID, token, &c)
	if len(c.Items) != 2 {
		t.Fatalf("expected merged lines, got %#v", c.Items)
	}
	if _, ok := c.CheckConsistency(); !ok {
		t.Fatalf("summary drifted: %#v", c.Summary)
	}
	if c.Summary.ItemCount != 13 {
		t.Fatalf("item count = %d, want 13", c.Summary.ItemCount)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/cart/remove/prod_42", nil)
	if resp, _ := http.DefaultClient.Do(req); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("remove without bearer = %d, want 401", resp.StatusCode)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("remove: %v %v", err, resp.StatusCode)
	}
	resp.Body.Close()

	if got := srv.RequestsTo(RouteCartAdd); len(got) != 3 || got[0].Query.Get("product_id") != "prod_42" {
		t.Fatalf("recorded adds = %#v", got)
	}
}

func TestFaultInjection(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	srv.Fail(RouteCategories, http.StatusServiceUnavailable)
	if status := getJSON(t, srv.URL+"/api/categories", "", nil); status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", status)
	}

	srv.Fail(RouteCategories, StatusDrop)
	if _, err := http.Get(srv.URL + "/api/categories"); err == nil {
		t.Fatal("expected transport error for dropped connection")
	}

	srv.Recover(RouteCategories)
	var list catalog.CategoryList
	if status := getJSON(t, srv.URL+"/api/categories", "", &list); status != http.StatusOK || len(list.Categories) == 0 {
		t.Fatalf("status = %d categories = %#v", status, list)
	}
}

func TestSearchMatchesPluralTerms(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	var result catalog.SearchResult
	getJSON(t, srv.URL+"/api/search?q=iphones+15+pro+max", "", &result)
	if result.Count == 0 || result.Count != len(result.Products) {
		t.Fatalf("unexpected search result: %#v", result)
	}
	if result.Products[0].ID != "prod_42" {
		t.Fatalf("first hit = %s, want prod_42", result.Products[0].ID)
	}
}
