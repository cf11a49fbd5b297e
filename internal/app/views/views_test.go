package views

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/storefront/internal/app"
	"github.com/R3E-Network/storefront/internal/app/domain/catalog"
	"github.com/R3E-Network/storefront/internal/app/domain/payment"
	"github.com/R3E-Network/storefront/internal/app/httpapi"
	"github.com/R3E-Network/storefront/internal/app/storage"
	"github.com/R3E-Network/storefront/internal/config"
	"github.com/R3E-Network/storefront/pkg/logger"
)

func newApp(t *testing.T) (*app.Application, *httpapi.Server) {
	t.Helper()
	srv := httpapi.NewServer()
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.API.MaxRetries = 0
	cfg.API.RateLimit = 0
	cfg.Storage.Backend = config.StoreMemory

	a, err := app.New(context.Background(), cfg, app.Options{
		Store:  storage.NewMemory(),
		Logger: logger.NewDiscard(),
	})
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() { _ = a.Stop(context.Background()) })
	return a, srv
}

func render(t *testing.T, c Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(&buf))
	return buf.String()
}

func signIn(t *testing.T, a *app.Application, srv *httpapi.Server) {
	t.Helper()
	srv.SeedUser("buyer@example.com", "secret", "Bulk Buyer")
	require.True(t, a.Login(context.Background(), "buyer@example.com", "secret").Success)
}

func TestCatalogGrid(t *testing.T) {
	a, srv := newApp(t)
	grid := NewCatalogGrid(a, catalog.Filter{Category: "Lighting"})
	require.NoError(t, grid.Mount(context.Background()))
	defer grid.Unmount()

	out := render(t, grid)
	assert.Contains(t, out, "Lighting")
	assert.Contains(t, out, "prod_77")
	assert.NotContains(t, out, "prod_42")
	assert.Len(t, srv.RequestsTo(httpapi.RouteProducts), 1)

	// Each mount fetches again; nothing is cached between views.
	require.NoError(t, grid.Mount(context.Background()))
	assert.Len(t, srv.RequestsTo(httpapi.RouteProducts), 2)
}

func TestCatalogGrid_DiscardsResponseAfterUnmount(t *testing.T) {
	a, srv := newApp(t)
	grid := NewCatalogGrid(a, catalog.Filter{})

	release := srv.Hold(httpapi.RouteProducts)
	done := make(chan error, 1)
	go func() { done <- grid.Mount(context.Background()) }()

	waitFor(t, func() bool { return len(srv.RequestsTo(httpapi.RouteProducts)) == 1 })
	grid.Unmount()
	release()
	require.NoError(t, <-done)

	assert.Empty(t, grid.Products())
}

func TestSearchResults(t *testing.T) {
	a, _ := newApp(t)
	view := NewSearchResults(a, "iphones 15 pro max")
	require.NoError(t, view.Mount(context.Background()))
	defer view.Unmount()

	out := render(t, view)
	assert.Contains(t, out, `2 results for "iphones 15 pro max"`)
	assert.Contains(t, out, "iPhone 15 Pro Max 256GB")
}

func TestCartDrawer_ToastOnFailure(t *testing.T) {
	a, srv := newApp(t)
	drawer := NewCartDrawer(a)
	require.NoError(t, drawer.Mount(context.Background()))
	defer drawer.Unmount()

	res := drawer.Add(context.Background(), "prod_42", 1, 199.99)
	assert.False(t, res.Success)
	assert.Contains(t, render(t, drawer), "Please login to add items to cart")

	signIn(t, a, srv)
	res = drawer.Add(context.Background(), "prod_42", 2, 199.99)
	require.True(t, res.Success, res.Error)

	out := render(t, drawer)
	assert.Contains(t, out, "iPhone 15 Pro Max 256GB")
	assert.Contains(t, out, "Items: 2")
	assert.Contains(t, out, "$399.98")
	assert.Contains(t, out, "Added to cart")

	drawer.DismissToast()
	assert.Empty(t, drawer.Toast())
}

func TestCartDrawer_UnmountStopsUpdates(t *testing.T) {
	a, srv := newApp(t)
	signIn(t, a, srv)
	drawer := NewCartDrawer(a)
	require.NoError(t, drawer.Mount(context.Background()))
	drawer.Unmount()

	require.True(t, a.AddToCart(context.Background(), "prod_43", 5, 4.5).Success)
	assert.Contains(t, render(t, drawer), "Your cart is empty")
}

func TestAuthForm_BannerAndReset(t *testing.T) {
	a, srv := newApp(t)
	srv.SeedUser("buyer@example.com", "secret", "Bulk Buyer")
	form := NewAuthForm(a, ModeLogin)
	require.NoError(t, form.Mount(context.Background()))
	defer form.Unmount()

	form.Email, form.Password = "buyer@example.com", "wrong"
	res := form.Submit(context.Background())
	assert.False(t, res.Success)
	assert.Empty(t, form.Password)
	assert.Contains(t, render(t, form), "Invalid email or password")

	form.Password = "secret"
	require.True(t, form.Submit(context.Background()).Success)
	assert.Empty(t, form.Banner())
	assert.Contains(t, render(t, form), "Signed in as")
}

func TestPaymentForm(t *testing.T) {
	a, _ := newApp(t)
	form := NewPaymentForm(a, payment.Request{
		Amount:        45000,
		Currency:      "USD",
		Customer:      payment.Customer{Email: "buyer@example.com", Name: "Buyer"},
		PaymentMethod: payment.MethodCrypto,
		CryptoPayment: &payment.CryptoPayment{CryptoMethod: payment.Bitcoin},
	})
	require.NoError(t, form.Mount(context.Background()))
	defer form.Unmount()
	assert.Contains(t, render(t, form), "Accepted:")

	_, err := form.Submit(context.Background())
	require.NoError(t, err)
	out := render(t, form)
	assert.Contains(t, out, "Send 1 to")
	assert.Contains(t, out, "Network: testnet")

	form.Request.Amount = 0
	_, err = form.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, form.Banner(), "amount")
}

func TestRecommendationsStrip_SilentOnFailure(t *testing.T) {
	a, srv := newApp(t)
	strip := NewRecommendationsStrip(a, 2)
	require.NoError(t, strip.Mount(context.Background()))
	defer strip.Unmount()

	out := render(t, strip)
	assert.Contains(t, out, "Recommended for you")

	srv.Fail(httpapi.RouteRecsSession, 500)
	require.NoError(t, strip.Mount(context.Background()))
	assert.Equal(t, out, render(t, strip))
}
