package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/storefront/internal/app"
	"github.com/R3E-Network/storefront/internal/app/domain/payment"
	"github.com/R3E-Network/storefront/internal/app/domain/tracking"
	"github.com/R3E-Network/storefront/internal/app/views"
)

func newPayCommand(opts *RootOptions) *cobra.Command {
	var (
		req    payment.Request
		method string
		coin   string
	)

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Start a payment",
		Example: `  storefront pay --amount 199.99 --email buyer@example.com --name "Bulk Buyer" --method card
  storefront pay --amount 4500 --email buyer@example.com --name "Bulk Buyer" --method crypto --crypto bitcoin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.PaymentMethod = payment.Method(strings.ToLower(method))
			if coin != "" {
				req.CryptoPayment = &payment.CryptoPayment{CryptoMethod: payment.CryptoMethod(strings.ToLower(coin))}
			}
			return opts.run(cmd, func(ctx context.Context, a *app.Application, out *OutputFormatter) error {
				if req.Customer.Email == "" {
					if u := a.Snapshot().User; u != nil {
						req.Customer.Email = u.Email
						if req.Customer.Name == "" {
							req.Customer.Name = u.DisplayName()
						}
					}
				}
				a.SetPage("/checkout")

				form := views.NewPaymentForm(a, req)
				defer form.Unmount()
				_ = form.Mount(ctx)
				resp, err := form.Submit(ctx)
				if err != nil {
					if !out.JSON() {
						_ = form.Render(out.Writer)
					}
					return failed(err)
				}
				return out.Success(newPaymentView(resp), form.Render)
			})
		},
	}

	cmd.Flags().Float64Var(&req.Amount, "amount", 0, "amount to charge")
	cmd.Flags().StringVar(&req.Currency, "currency", "USD", "currency code")
	cmd.Flags().StringVar(&req.Customer.Email, "email", "", "customer email (defaults to the signed-in user)")
	cmd.Flags().StringVar(&req.Customer.Name, "name", "", "customer name")
	cmd.Flags().StringVar(&req.Customer.Phone, "phone", "", "customer phone")
	cmd.Flags().StringVar(&req.Description, "description", "", "payment description")
	cmd.Flags().StringVar(&method, "method", string(payment.MethodCard), "card|bank_transfer|mobile_money|ussd|crypto")
	cmd.Flags().StringVar(&coin, "crypto", "", "bitcoin|ethereum|usdt|usdc (crypto payments)")

	cmd.AddCommand(newPayVerifyCommand(opts))
	return cmd
}

// paymentView exposes the lifted crypto fields in JSON output.
type paymentView struct {
	payment.Response
	CryptoAmount          float64 `json:"crypto_amount,omitempty"`
	Network               string  `json:"network,omitempty"`
	ConfirmationsRequired int     `json:"confirmations_required,omitempty"`
}

func newPaymentView(r payment.Response) paymentView {
	return paymentView{
		Response:              r,
		CryptoAmount:          r.CryptoAmount,
		Network:               r.Network,
		ConfirmationsRequired: r.ConfirmationsRequired,
	}
}

func newPayVerifyCommand(opts *RootOptions) *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "verify <transaction-id>",
		Short: "Check a payment's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.Application, out *OutputFormatter) error {
				v, err := a.VerifyPayment(ctx, args[0], payment.Method(method))
				if err != nil {
					return failed(err)
				}
				if v.Settled() {
					a.TrackEvent(tracking.Purchase, map[string]any{
						"transaction_id": v.TransactionID,
						"amount":         v.Amount,
						"currency":       v.Currency,
					})
				}
				return out.Success(v, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s: %s", v.TransactionID, v.Status)
					if err == nil && v.ConfirmationsRequired > 0 {
						_, err = fmt.Fprintf(w, " (%d/%d confirmations)", v.Confirmations, v.ConfirmationsRequired)
					}
					if err == nil {
						_, err = fmt.Fprintln(w)
					}
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&method, "method", string(payment.MethodCard), "payment method used")
	return cmd
}

func newCryptoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "crypto",
		Short: "List accepted cryptocurrencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.Application, out *OutputFormatter) error {
				list, err := a.SupportedCrypto(ctx)
				if err != nil {
					return failed(err)
				}
				return out.Success(list, func(w io.Writer) error {
					for _, c := range list {
						if _, err := fmt.Fprintf(w, "%-8s %-10s $%.2f  %s, %d confirmations\n",
							c.Symbol, c.Name, c.RateUSD, c.Network, c.MinConfirmations); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
}
