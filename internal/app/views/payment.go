package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/R3E-Network/storefront/internal/app/domain/payment"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
)

// PaymentForm initializes a payment and shows the checkout link or crypto
// deposit details.
type PaymentForm struct {
	c      Container
	styles Styles

	Request payment.Request

	lc       lifecycle
	cryptos  []payment.Crypto
	response *payment.Response
	banner   string
}

// NewPaymentForm builds a form prefilled with req.
func NewPaymentForm(c Container, req payment.Request) *PaymentForm {
	return &PaymentForm{c: c, styles: DefaultStyles(), Request: req}
}

// Mount loads the supported cryptocurrencies for the coin picker. A failure
// only hides the picker.
func (f *PaymentForm) Mount(ctx context.Context) error {
	gen := f.lc.begin()
	list, err := f.c.SupportedCrypto(ctx)
	if err != nil {
		return nil
	}
	f.lc.apply(gen, func() { f.cryptos = list })
	return nil
}

// Unmount discards pending responses.
func (f *PaymentForm) Unmount() { f.lc.end() }

// Submit initializes the payment.
func (f *PaymentForm) Submit(ctx context.Context) (payment.Response, error) {
	f.lc.mu.Lock()
	gen := f.lc.gen
	req := f.Request
	f.lc.mu.Unlock()

	resp, err := f.c.InitializePayment(ctx, req)
	f.lc.apply(gen, func() {
		if err != nil {
			f.banner = sferrors.UserMessage(err)
			f.response = nil
			return
		}
		f.banner = ""
		f.response = &resp
	})
	return resp, err
}

// Banner returns the inline error, if any.
func (f *PaymentForm) Banner() string {
	f.lc.mu.Lock()
	defer f.lc.mu.Unlock()
	return f.banner
}

// Render writes the form or its outcome.
func (f *PaymentForm) Render(w io.Writer) error {
	f.lc.mu.Lock()
	req, cryptos, resp, banner := f.Request, f.cryptos, f.response, f.banner
	f.lc.mu.Unlock()

	var sb strings.Builder
	sb.WriteString(f.styles.Title.Render("Payment") + "\n")
	fmt.Fprintf(&sb, "Amount: %s\n", f.styles.Price.Render(money(req.Amount, req.Currency)))
	fmt.Fprintf(&sb, "Method: %s\n", req.PaymentMethod)
	if banner != "" {
		sb.WriteString(f.styles.Banner.Render("! "+banner) + "\n")
	}

	switch {
	case resp != nil && resp.CryptoAddress != "":
		fmt.Fprintf(&sb, "Send %g to %s\n", resp.CryptoAmount, f.styles.Bold.Render(resp.CryptoAddress))
		if resp.Network != "" {
			fmt.Fprintf(&sb, "Network: %s, confirmations required: %d\n", resp.Network, resp.ConfirmationsRequired)
		}
		fmt.Fprintf(&sb, "Reference: %s\n", resp.ID)
	case resp != nil:
		fmt.Fprintf(&sb, "Complete payment at %s\n", resp.PaymentLink)
		fmt.Fprintf(&sb, "Reference: %s\n", resp.ID)
	case req.PaymentMethod == payment.MethodCrypto && len(cryptos) > 0:
		names := make([]string, 0, len(cryptos))
		for _, c := range cryptos {
			names = append(names, fmt.Sprintf("%s (%s)", c.Name, money(c.RateUSD, "USD")))
		}
		sb.WriteString(f.styles.Muted.Render("Accepted: "+strings.Join(names, ", ")) + "\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
