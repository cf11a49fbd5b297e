package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/R3E-Network/storefront/internal/app"
	"github.com/R3E-Network/storefront/internal/app/domain/cart"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
)

// CartDrawer shows the container's cart and reports mutation outcomes as a
// transient toast.
type CartDrawer struct {
	c      Container
	styles Styles

	lc    lifecycle
	snap  app.Snapshot
	toast string
}

// NewCartDrawer builds a drawer bound to c.
func NewCartDrawer(c Container) *CartDrawer {
	return &CartDrawer{c: c, styles: DefaultStyles()}
}

// Mount subscribes to state changes and reloads the cart.
func (d *CartDrawer) Mount(ctx context.Context) error {
	gen := d.lc.begin()
	d.lc.apply(gen, func() { d.snap = d.c.Snapshot() })
	d.lc.subscribe(d.c, func(s app.Snapshot) {
		d.lc.apply(gen, func() { d.snap = s })
	})
	return d.c.FetchCart(ctx)
}

// Unmount drops the subscription.
func (d *CartDrawer) Unmount() { d.lc.end() }

// Add adds quantity of productID at price. Failures become the toast.
func (d *CartDrawer) Add(ctx context.Context, productID string, quantity int, price float64) sferrors.Result {
	res := d.c.AddToCart(ctx, productID, quantity, price)
	d.setToast(res, "Added to cart")
	return res
}

// Remove drops productID.
func (d *CartDrawer) Remove(ctx context.Context, productID string) sferrors.Result {
	res := d.c.RemoveFromCart(ctx, productID)
	d.setToast(res, "Removed from cart")
	return res
}

// Update sets the quantity of productID.
func (d *CartDrawer) Update(ctx context.Context, productID string, quantity int) sferrors.Result {
	res := d.c.UpdateCartQuantity(ctx, productID, quantity)
	d.setToast(res, "Cart updated")
	return res
}

func (d *CartDrawer) setToast(res sferrors.Result, ok string) {
	d.lc.mu.Lock()
	defer d.lc.mu.Unlock()
	if !d.lc.mounted {
		return
	}
	if res.Success {
		d.toast = ok
	} else {
		d.toast = res.Error
	}
}

// Toast returns the current toast message.
func (d *CartDrawer) Toast() string {
	d.lc.mu.Lock()
	defer d.lc.mu.Unlock()
	return d.toast
}

// DismissToast clears the toast.
func (d *CartDrawer) DismissToast() {
	d.lc.mu.Lock()
	d.toast = ""
	d.lc.mu.Unlock()
}

// Render writes the drawer.
func (d *CartDrawer) Render(w io.Writer) error {
	d.lc.mu.Lock()
	snap, toast := d.snap, d.toast
	d.lc.mu.Unlock()

	var sb strings.Builder
	switch {
	case snap.User == nil:
		sb.WriteString(d.styles.Muted.Render("Sign in to see your cart"))
		sb.WriteString("\n")
	case snap.Cart == nil || snap.Cart.Empty():
		sb.WriteString(d.styles.Title.Render("Cart"))
		sb.WriteString("\n")
		sb.WriteString(d.styles.Muted.Render("Your cart is empty"))
		sb.WriteString("\n")
	default:
		sb.WriteString(cartTable(d.styles, *snap.Cart))
		sb.WriteString(cartSummary(d.styles, snap.Cart.Summary))
	}
	if toast != "" {
		sb.WriteString(d.styles.Toast.Render("» " + toast))
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func cartTable(styles Styles, c cart.Cart) string {
	t := newTable("Cart", "PRODUCT", "NAME", "QTY", "UNIT", "LINE")
	for _, item := range c.Items {
		name := item.ProductName
		if name == "" {
			name = item.ProductID
		}
		t.add(item.ProductID, name, strconv.Itoa(item.Quantity),
			money(item.UnitPrice, item.Currency), money(item.LineTotal(), item.Currency))
	}
	return t.render(styles)
}

func cartSummary(styles Styles, s cart.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Items: %d\n", s.ItemCount)
	fmt.Fprintf(&sb, "Subtotal: %s\n", money(s.Subtotal, s.Currency))
	if s.Tax > 0 {
		fmt.Fprintf(&sb, "Tax: %s\n", money(s.Tax, s.Currency))
	}
	if s.Shipping > 0 {
		fmt.Fprintf(&sb, "Shipping: %s\n", money(s.Shipping, s.Currency))
	}
	sb.WriteString("Total: " + styles.Price.Render(money(s.Total, s.Currency)) + "\n")
	return sb.String()
}
