package views

import (
	"context"
	"io"
	"sync"

	"github.com/R3E-Network/storefront/internal/app"
	"github.com/R3E-Network/storefront/internal/app/domain/catalog"
	"github.com/R3E-Network/storefront/internal/app/domain/payment"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
)

// Container is the part of the application views are allowed to use.
// *app.Application satisfies it.
type Container interface {
	Snapshot() app.Snapshot
	Subscribe(fn func(app.Snapshot)) (cancel func())

	ListProducts(ctx context.Context, filter catalog.Filter) ([]catalog.Product, error)
	BrowseCategory(ctx context.Context, category string, limit int) ([]catalog.Product, error)
	Search(ctx context.Context, query string) (catalog.SearchResult, error)

	Login(ctx context.Context, email, password string) sferrors.Result
	Register(ctx context.Context, email, password, fullName string) sferrors.Result

	FetchCart(ctx context.Context) error
	AddToCart(ctx context.Context, productID string, quantity int, price float64) sferrors.Result
	RemoveFromCart(ctx context.Context, productID string) sferrors.Result
	UpdateCartQuantity(ctx context.Context, productID string, quantity int) sferrors.Result

	LoadRecommendations(ctx context.Context)

	InitializePayment(ctx context.Context, req payment.Request) (payment.Response, error)
	SupportedCrypto(ctx context.Context) ([]payment.Crypto, error)
}

var _ Container = (*app.Application)(nil)

// Component is a mountable view.
type Component interface {
	Mount(ctx context.Context) error
	Unmount()
	Render(w io.Writer) error
}

// lifecycle guards component state against responses that arrive after
// Unmount or after a newer Mount.
type lifecycle struct {
	mu      sync.Mutex
	mounted bool
	gen     uint64
	cancel  func()
}

// begin marks the component mounted and returns the generation fetches
// started now must present to apply.
func (l *lifecycle) begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mounted = true
	l.gen++
	return l.gen
}

// apply runs fn under the lock when gen is still current.
func (l *lifecycle) apply(gen uint64, fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.mounted || l.gen != gen {
		return false
	}
	fn()
	return true
}

func (l *lifecycle) subscribe(c Container, fn func(app.Snapshot)) {
	cancel := c.Subscribe(fn)
	l.mu.Lock()
	prev := l.cancel
	l.cancel = cancel
	l.mu.Unlock()
	if prev != nil {
		prev()
	}
}

func (l *lifecycle) end() {
	l.mu.Lock()
	l.mounted = false
	l.gen++
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (l *lifecycle) isMounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mounted
}
