package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/storefront/internal/app"
	"github.com/R3E-Network/storefront/internal/app/views"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
)

func newCartCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showCart(opts, cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showCart(opts, cmd)
		},
	})

	var price float64
	add := &cobra.Command{
		Use:     "add <product-id> [quantity]",
		Short:   "Add a product",
		Example: `  storefront cart add prod_42 1 --price 199.99`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return NewExitError(ExitCommandError, "quantity must be an integer")
				}
				qty = n
			}
			return mutateCart(opts, cmd, func(ctx context.Context, d *views.CartDrawer, a *app.Application) sferrors.Result {
				unit := price
				if !cmd.Flags().Changed("price") {
					if p, err := a.ViewProduct(ctx, args[0]); err == nil {
						unit = p.Pricing.MinPrice
					}
				}
				return d.Add(ctx, args[0], qty, unit)
			})
		},
	}
	add.Flags().Float64Var(&price, "price", 0, "unit price shown when adding (defaults to the catalog price)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateCart(opts, cmd, func(ctx context.Context, d *views.CartDrawer, _ *app.Application) sferrors.Result {
				return d.Remove(ctx, args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set a product's quantity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return NewExitError(ExitCommandError, "quantity must be an integer")
			}
			return mutateCart(opts, cmd, func(ctx context.Context, d *views.CartDrawer, _ *app.Application) sferrors.Result {
				return d.Update(ctx, args[0], qty)
			})
		},
	})
	return cmd
}

func showCart(opts *RootOptions, cmd *cobra.Command) error {
	return opts.run(cmd, func(ctx context.Context, a *app.Application, out *OutputFormatter) error {
		a.SetPage("/cart")
		drawer := views.NewCartDrawer(a)
		defer drawer.Unmount()
		if err := drawer.Mount(ctx); err != nil {
			return failed(err)
		}
		return out.Success(a.Snapshot().Cart, drawer.Render)
	})
}

func mutateCart(opts *RootOptions, cmd *cobra.Command, op func(context.Context, *views.CartDrawer, *app.Application) sferrors.Result) error {
	return opts.run(cmd, func(ctx context.Context, a *app.Application, out *OutputFormatter) error {
		a.SetPage("/cart")
		drawer := views.NewCartDrawer(a)
		defer drawer.Unmount()
		_ = drawer.Mount(ctx)

		res := op(ctx, drawer, a)
		if !res.Success {
			if !out.JSON() {
				_ = drawer.Render(out.Writer)
			}
			return fail(res)
		}
		return out.Success(a.Snapshot().Cart, drawer.Render)
	})
}
