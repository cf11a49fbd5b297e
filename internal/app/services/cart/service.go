// Package cart mirrors the server's cart for the signed-in user. Every
// mutation is followed by a full re-fetch; the client never patches or
// recomputes the cart locally.
package cart

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/R3E-Network/storefront/internal/app/domain/cart"
	"github.com/R3E-Network/storefront/internal/app/domain/catalog"
	"github.com/R3E-Network/storefront/internal/app/metrics"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
	"github.com/R3E-Network/storefront/internal/httputil"
	"github.com/R3E-Network/storefront/pkg/logger"
)

// API is the subset of the HTTP client the cart service needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values, token string, out any) error
	Post(ctx context.Context, path string, query url.Values, body any, token string, out any) error
	Put(ctx context.Context, path string, query url.Values, body any, token string, out any) error
	Delete(ctx context.Context, path string, token string, out any) error
}

// Identity reports who the cart belongs to.
type Identity interface {
	UserID() string
	Token() string
}

// ProductLookup resolves display fields missing from cart lines.
type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

// Service holds the last fetched cart snapshot.
type Service struct {
	api      API
	identity Identity
	products ProductLookup
	log      *logger.Logger

	mu    sync.RWMutex
	cart  *cart.Cart
	owner string
	epoch uint64
}

// New constructs the cart service. products may be nil, in which case
// missing display fields stay empty.
func New(api API, identity Identity, products ProductLookup, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("cart")
	}
	return &Service{api: api, identity: identity, products: products, log: log}
}

// Snapshot returns a copy of the current cart, if one has been fetched for
// the user who is signed in now.
func (s *Service) Snapshot() (cart.Cart, bool) {
	current := s.identity.UserID()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cart == nil || current == "" || s.owner != current {
		return cart.Cart{}, false
	}
	return s.cart.Clone(), true
}

// Clear drops the snapshot. Fetches already in flight are discarded when
// they complete.
func (s *Service) Clear() {
	s.mu.Lock()
	s.cart = nil
	s.owner = ""
	s.epoch++
	s.mu.Unlock()
}

// Fetch replaces the snapshot with the server's cart. It is a no-op when no
// user is signed in.
func (s *Service) Fetch(ctx context.Context) error {
	userID := s.identity.UserID()
	if userID == "" {
		return nil
	}

	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()

	var fetched cart.Cart
	if err := s.api.Get(ctx, cartPath(userID), nil, s.identity.Token(), &fetched); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("cart fetch failed")
		return err
	}

	s.fillDisplayFields(ctx, &fetched)
	s.checkDrift(userID, fetched)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.identity.UserID() != userID {
		s.log.WithField("user_id", userID).Debug("discarding cart fetched for a previous session")
		return nil
	}
	s.cart = &fetched
	s.owner = userID
	return nil
}

// Add posts a line to the cart, then re-fetches. A user must be signed in;
// otherwise no request is made.
func (s *Service) Add(ctx context.Context, productID string, quantity int, price float64) sferrors.Result {
	userID := s.identity.UserID()
	if userID == "" {
		return sferrors.Fail(sferrors.AuthRequired(sferrors.ActionCartAdd))
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return sferrors.Fail(sferrors.Validation("product_id", "is required"))
	}
	if quantity <= 0 {
		return sferrors.Fail(sferrors.Validation("quantity", "must be a positive integer"))
	}
	if price < 0 {
		return sferrors.Fail(sferrors.Validation("price", "must not be negative"))
	}

	query := url.Values{}
	query.Set("product_id", productID)
	query.Set("quantity", strconv.Itoa(quantity))
	err := s.api.Post(ctx, cartPath(userID)+"/items", query, nil, s.identity.Token(), nil)
	return s.afterMutation(ctx, "add", productID, err)
}

// Remove deletes a line, then re-fetches.
func (s *Service) Remove(ctx context.Context, productID string) sferrors.Result {
	if s.identity.UserID() == "" {
		return sferrors.Fail(sferrors.AuthRequired(sferrors.ActionCartRemove))
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return sferrors.Fail(sferrors.Validation("product_id", "is required"))
	}

	err := s.api.Delete(ctx, "/api/cart/remove/"+httputil.PathEscape(productID), s.identity.Token(), nil)
	return s.afterMutation(ctx, "remove", productID, err)
}

// UpdateQuantity sets a line's quantity, then re-fetches. Zero removes the
// line.
func (s *Service) UpdateQuantity(ctx context.Context, productID string, quantity int) sferrors.Result {
	userID := s.identity.UserID()
	if userID == "" {
		return sferrors.Fail(sferrors.AuthRequired(sferrors.ActionCartUpdate))
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return sferrors.Fail(sferrors.Validation("product_id", "is required"))
	}
	if quantity < 0 {
		return sferrors.Fail(sferrors.Validation("quantity", "must not be negative"))
	}

	query := url.Values{}
	query.Set("quantity", strconv.Itoa(quantity))
	path := cartPath(userID) + "/items/" + httputil.PathEscape(productID)
	err := s.api.Put(ctx, path, query, nil, s.identity.Token(), nil)
	return s.afterMutation(ctx, "update", productID, err)
}

// afterMutation skips the re-fetch when the mutation failed, leaving the
// last snapshot in place.
func (s *Service) afterMutation(ctx context.Context, op, productID string, err error) sferrors.Result {
	metrics.RecordCartMutation(op, err == nil)
	if err != nil {
		s.log.WithError(err).WithField("op", op).WithField("product_id", productID).Warn("cart mutation failed")
		return sferrors.Fail(err)
	}
	if ferr := s.Fetch(ctx); ferr != nil {
		s.log.WithError(ferr).WithField("op", op).Warn("cart re-fetch after mutation failed; snapshot is stale")
	}
	return sferrors.OK()
}

func (s *Service) fillDisplayFields(ctx context.Context, c *cart.Cart) {
	if s.products == nil {
		return
	}
	resolved := make(map[string]catalog.Product)
	for i := range c.Items {
		item := &c.Items[i]
		if item.ProductName != "" && item.ProductImage != "" {
			continue
		}
		p, ok := resolved[item.ProductID]
		if !ok {
			var err error
			p, err = s.products.GetProduct(ctx, item.ProductID)
			if err != nil {
				s.log.WithError(err).WithField("product_id", item.ProductID).Info("product lookup for cart line failed")
				continue
			}
			resolved[item.ProductID] = p
		}
		if item.ProductName == "" {
			item.ProductName = p.Name
		}
		if item.ProductImage == "" {
			item.ProductImage = p.PrimaryImage()
		}
	}
}

func (s *Service) checkDrift(userID string, c cart.Cart) {
	drift, ok := c.CheckConsistency()
	if ok {
		return
	}
	metrics.RecordCartDrift()
	s.log.WithField("user_id", userID).
		WithField("summary_subtotal", drift.SummarySubtotal).
		WithField("line_subtotal", drift.LineSubtotal).
		WithField("summary_item_count", drift.SummaryItemCount).
		WithField("line_item_count", drift.LineItemCount).
		Warn("cart summary disagrees with its lines")
}

func cartPath(userID string) string {
	return "/api/cart/" + httputil.PathEscape(userID)
}
