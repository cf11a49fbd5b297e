package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/R3E-Network/storefront/internal/app/domain/cart"
	"github.com/R3E-Network/storefront/internal/app/domain/catalog"
	"github.com/R3E-Network/storefront/internal/app/domain/payment"
	"github.com/R3E-Network/storefront/internal/app/domain/recommendation"
	"github.com/R3E-Network/storefront/internal/app/domain/tracking"
	"github.com/R3E-Network/storefront/internal/app/domain/user"
	authsvc "github.com/R3E-Network/storefront/internal/app/services/auth"
	cartsvc "github.com/R3E-Network/storefront/internal/app/services/cart"
	catalogsvc "github.com/R3E-Network/storefront/internal/app/services/catalog"
	"github.com/R3E-Network/storefront/internal/app/services/payments"
	recsvc "github.com/R3E-Network/storefront/internal/app/services/recommendations"
	"github.com/R3E-Network/storefront/internal/app/services/session"
	trackingsvc "github.com/R3E-Network/storefront/internal/app/services/tracking"
	"github.com/R3E-Network/storefront/internal/app/storage"
	"github.com/R3E-Network/storefront/internal/app/system"
	"github.com/R3E-Network/storefront/internal/config"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
	"github.com/R3E-Network/storefront/internal/httputil"
	"github.com/R3E-Network/storefront/pkg/logger"
)

// Options carries optional dependencies. Zero values are built from the
// configuration.
type Options struct {
	// Store overrides the configured token store. The caller keeps
	// ownership and closes it.
	Store      storage.Store
	HTTPClient *http.Client
	Logger     *logger.Logger
	// SessionID pins the session identifier instead of generating one.
	SessionID string
}

// Snapshot is an immutable copy of the application state.
type Snapshot struct {
	SessionID       string
	User            *user.User
	Cart            *cart.Cart
	Recommendations []recommendation.Recommendation
	Page            string
}

// Authenticated reports whether a user is signed in.
func (s Snapshot) Authenticated() bool { return s.User != nil }

// Application owns the session, the signed-in user and token, the cart and
// the recommendation list. It is the only mutation surface; consumers get
// the handle explicitly and never reach the API themselves.
type Application struct {
	cfg       *config.Config
	log       *logger.Logger
	api       *httputil.Client
	store     storage.Store
	ownsStore bool
	closeOnce sync.Once
	manager   *system.Manager
	session   session.Session

	auth     *authsvc.Service
	catalog  *catalogsvc.Service
	cart     *cartsvc.Service
	recs     *recsvc.Service
	payments *payments.Service
	tracker  *trackingsvc.Tracker

	pageMu sync.RWMutex
	page   string

	subMu   sync.Mutex
	subs    map[uint64]*subscriber
	nextSub uint64
}

// New builds the application from cfg. The token store is opened here; call
// Stop to release it.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logger.New(cfg.LoggerConfig()).Component("app")
	}

	retry := httputil.DefaultRetryConfig()
	retry.MaxRetries = cfg.API.MaxRetries
	api, err := httputil.New(httputil.Config{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		HTTPClient: opts.HTTPClient,
		Retry:      retry,
		Breaker: httputil.CircuitBreakerConfig{
			FailureThreshold: cfg.API.BreakerThreshold,
			Cooldown:         cfg.API.BreakerCooldown,
		},
		RateLimit: cfg.API.RateLimit,
		RateBurst: cfg.API.RateBurst,
		Logger:    log.Component("api-client"),
	})
	if err != nil {
		return nil, fmt.Errorf("build api client: %w", err)
	}

	store, owns := opts.Store, false
	if store == nil {
		store, err = OpenStore(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open token store: %w", err)
		}
		owns = true
	}

	sess := session.New()
	if id := strings.TrimSpace(opts.SessionID); id != "" {
		sess = session.FromID(id)
	}

	a := &Application{
		cfg:       cfg,
		log:       log,
		api:       api,
		store:     store,
		ownsStore: owns,
		manager:   system.NewManager(),
		session:   sess,
		page:      "/",
		subs:      make(map[uint64]*subscriber),
	}
	a.auth = authsvc.New(api, store, log.Component("auth"))
	a.catalog = catalogsvc.New(api, log.Component("catalog"))
	a.cart = cartsvc.New(api, a.auth, a.catalog, log.Component("cart"))
	a.recs = recsvc.New(api, a, cfg.Recommendations.Limit, log.Component("recommendations"))
	a.payments = payments.New(api, log.Component("payments"))
	a.tracker = trackingsvc.New(api, a, trackingsvc.Config{
		Enabled:     cfg.Tracking.Enabled,
		MaxInFlight: cfg.Tracking.MaxInFlight,
		Timeout:     cfg.Tracking.Timeout,
	}, log.Component("tracking"))

	services := []system.Service{
		system.Func{ServiceName: "store", OnStop: a.closeStore},
		system.Func{ServiceName: "auth", OnStart: a.restore},
		a.tracker,
	}
	for _, svc := range services {
		if err := a.manager.Register(svc); err != nil {
			_ = a.closeStore(ctx)
			return nil, fmt.Errorf("register %s: %w", svc.Name(), err)
		}
	}

	log.WithField("session_id", sess.ID()).WithField("api", api.BaseURL()).Debug("application created")
	return a, nil
}

// Start restores a persisted token and, when it verifies, loads the cart.
// A rejected or unreachable token leaves the application signed out; it is
// not a start failure.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop drains in-flight tracking beacons until ctx expires and closes the
// token store. The store is closed even when Start was never called.
func (a *Application) Stop(ctx context.Context) error {
	return errors.Join(a.manager.Stop(ctx), a.closeStore(ctx))
}

func (a *Application) restore(ctx context.Context) error {
	if err := a.auth.Restore(ctx); err != nil {
		a.log.WithError(err).Info("stored session not restored")
		a.notify()
		return nil
	}
	if a.auth.Authenticated() {
		_ = a.cart.Fetch(ctx)
	}
	a.notify()
	return nil
}

// closeStore closes an owned store once; later calls return nil.
func (a *Application) closeStore(context.Context) error {
	if !a.ownsStore || a.store == nil {
		return nil
	}
	var err error
	a.closeOnce.Do(func() { err = a.store.Close() })
	return err
}

// Config returns the configuration the application was built with.
func (a *Application) Config() *config.Config { return a.cfg }

// SessionID implements the tracking and recommendation identity.
func (a *Application) SessionID() string { return a.session.ID() }

// UserID returns the signed-in user's id or "".
func (a *Application) UserID() string { return a.auth.UserID() }

// Token returns the bearer token or "".
func (a *Application) Token() string { return a.auth.Token() }

// PagePath returns the path of the current view.
func (a *Application) PagePath() string {
	a.pageMu.RLock()
	defer a.pageMu.RUnlock()
	return a.page
}

// SetPage records the current view path and tracks a page view.
func (a *Application) SetPage(path string) {
	if path == "" {
		path = "/"
	}
	a.pageMu.Lock()
	a.page = path
	a.pageMu.Unlock()
	a.tracker.Track(tracking.PageView, nil)
}

// Snapshot returns a copy of the current state.
func (a *Application) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:       a.session.ID(),
		Recommendations: a.recs.List(),
		Page:            a.PagePath(),
	}
	if u, ok := a.auth.User(); ok {
		snap.User = &u
	}
	if c, ok := a.cart.Snapshot(); ok {
		snap.Cart = &c
	}
	return snap
}

// --- auth -------------------------------------------------------------------

// Login signs in and loads the user's cart.
func (a *Application) Login(ctx context.Context, email, password string) sferrors.Result {
	res := a.auth.Login(ctx, email, password)
	if !res.Success {
		return res
	}
	a.afterSignIn(ctx, tracking.UserLogin)
	return res
}

// Register creates an account, signs it in and loads its cart.
func (a *Application) Register(ctx context.Context, email, password, fullName string) sferrors.Result {
	res := a.auth.Register(ctx, email, password, fullName)
	if !res.Success {
		return res
	}
	a.afterSignIn(ctx, tracking.UserRegister)
	return res
}

func (a *Application) afterSignIn(ctx context.Context, event tracking.EventType) {
	a.cart.Clear()
	a.recs.Clear()
	a.tracker.Track(event, nil)
	_ = a.cart.Fetch(ctx)
	a.notify()
}

// Logout clears the user, token, cart and recommendations. No server call
// is made.
func (a *Application) Logout(ctx context.Context) {
	a.auth.Logout(ctx)
	a.cart.Clear()
	a.recs.Clear()
	a.notify()
}

// --- cart -------------------------------------------------------------------

// FetchCart reloads the cart. Without a signed-in user it does nothing.
func (a *Application) FetchCart(ctx context.Context) error {
	err := a.cart.Fetch(ctx)
	a.notify()
	return err
}

// AddToCart adds a line and re-fetches. Without a signed-in user it fails
// immediately and makes no request.
func (a *Application) AddToCart(ctx context.Context, productID string, quantity int, price float64) sferrors.Result {
	res := a.cart.Add(ctx, productID, quantity, price)
	if res.Success {
		a.tracker.Track(tracking.CartAdd, map[string]any{
			"product_id": productID,
			"quantity":   quantity,
			"price":      price,
		})
	}
	a.notify()
	return res
}

// RemoveFromCart removes a line and re-fetches.
func (a *Application) RemoveFromCart(ctx context.Context, productID string) sferrors.Result {
	res := a.cart.Remove(ctx, productID)
	if res.Success {
		a.tracker.Track(tracking.CartRemove, map[string]any{"product_id": productID})
	}
	a.notify()
	return res
}

// UpdateCartQuantity sets a line's quantity and re-fetches.
func (a *Application) UpdateCartQuantity(ctx context.Context, productID string, quantity int) sferrors.Result {
	res := a.cart.UpdateQuantity(ctx, productID, quantity)
	a.notify()
	return res
}

// --- tracking and recommendations --------------------------------------------

// TrackEvent sends a beacon. It never blocks and never fails the caller.
func (a *Application) TrackEvent(eventType tracking.EventType, properties map[string]any) {
	a.tracker.Track(eventType, properties)
}

// LoadRecommendations refreshes the list. Failures keep the previous list
// and are not reported.
func (a *Application) LoadRecommendations(ctx context.Context) {
	if err := a.recs.Load(ctx); err != nil {
		return
	}
	a.notify()
}

// --- catalog ----------------------------------------------------------------

// ListProducts reads the catalog.
func (a *Application) ListProducts(ctx context.Context, filter catalog.Filter) ([]catalog.Product, error) {
	return a.catalog.ListProducts(ctx, filter)
}

// ViewProduct loads one product and tracks the view.
func (a *Application) ViewProduct(ctx context.Context, id string) (catalog.Product, error) {
	p, err := a.catalog.GetProduct(ctx, id)
	if err != nil {
		return p, err
	}
	a.tracker.Track(tracking.ProductView, map[string]any{
		"product_id": p.ID,
		"category":   p.Category,
	})
	return p, nil
}

// Categories lists catalog categories.
func (a *Application) Categories(ctx context.Context) ([]catalog.Category, error) {
	return a.catalog.ListCategories(ctx)
}

// BrowseCategory lists a category's products and tracks the view.
func (a *Application) BrowseCategory(ctx context.Context, category string, limit int) ([]catalog.Product, error) {
	products, err := a.catalog.ListProducts(ctx, catalog.Filter{Category: category, Limit: limit})
	if err != nil {
		return nil, err
	}
	a.tracker.Track(tracking.CategoryView, map[string]any{
		"category":      category,
		"results_count": len(products),
	})
	return products, nil
}

// Search runs a product search attributed to the session and, when signed
// in, the user, then tracks it with the result count.
func (a *Application) Search(ctx context.Context, query string) (catalog.SearchResult, error) {
	res, err := a.catalog.Search(ctx, query, a.UserID(), a.SessionID())
	if err != nil {
		return res, err
	}
	a.tracker.Track(tracking.Search, map[string]any{
		"query":         strings.TrimSpace(query),
		"results_count": len(res.Products),
	})
	return res, nil
}

// --- payments ---------------------------------------------------------------

// InitializePayment starts a payment with the provider.
func (a *Application) InitializePayment(ctx context.Context, req payment.Request) (payment.Response, error) {
	return a.payments.Initialize(ctx, req, a.Token())
}

// VerifyPayment reports a transaction's status.
func (a *Application) VerifyPayment(ctx context.Context, transactionID string, method payment.Method) (payment.Verification, error) {
	return a.payments.Verify(ctx, transactionID, method)
}

// SupportedCrypto lists accepted cryptocurrencies.
func (a *Application) SupportedCrypto(ctx context.Context) ([]payment.Crypto, error) {
	return a.payments.SupportedCrypto(ctx)
}
