package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/storefront/internal/app"
	"github.com/R3E-Network/storefront/internal/app/domain/catalog"
	"github.com/R3E-Network/storefront/internal/app/views"
)

func newProductsCommand(opts *RootOptions) *cobra.Command {
	var filter catalog.Filter

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List catalog products",
		Example: `  storefront products --category Electronics --limit 10
  storefront products --min-price 5 --max-price 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.Application, out *OutputFormatter) error {
				page := "/products"
				if filter.Category != "" {
					page = "/category/" + strings.ToLower(filter.Category)
				}
				a.SetPage(page)

				grid := views.NewCatalogGrid(a, filter)
				defer grid.Unmount()
				if err := grid.Mount(ctx); err != nil {
					return failed(err)
				}
				return out.Success(grid.Products(), grid.Render)
			})
		},
	}

	cmd.Flags().StringVar(&filter.Category, "category", "", "category name")
	cmd.Flags().StringVar(&filter.Search, "search", "", "free-text filter")
	cmd.Flags().Float64Var(&filter.MinPrice, "min-price", 0, "minimum price")
	cmd.Flags().Float64Var(&filter.MaxPrice, "max-price", 0, "maximum price")
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&filter.Skip, "skip", 0, "products to skip")
	return cmd
}

func newProductCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.Application, out *OutputFormatter) error {
				a.SetPage("/product/" + args[0])
				p, err := a.ViewProduct(ctx, args[0])
				if err != nil {
					return failed(err)
				}
				return out.Success(p, func(w io.Writer) error { return renderProduct(w, p) })
			})
		},
	}
}

func renderProduct(w io.Writer, p catalog.Product) error {
	styles := views.DefaultStyles()
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(p.Name) + "\n")
	if p.Description != "" {
		sb.WriteString(p.Description + "\n")
	}
	fmt.Fprintf(&sb, "ID: %s\n", p.ID)
	fmt.Fprintf(&sb, "Category: %s\n", p.Category)
	fmt.Fprintf(&sb, "Price: %.2f - %.2f %s\n", p.Pricing.MinPrice, p.Pricing.MaxPrice, p.Pricing.Currency)
	for _, tier := range p.Pricing.BulkPricing {
		fmt.Fprintf(&sb, "  %d+ units: %.2f\n", tier.MinQuantity, tier.Price)
	}
	if p.MinOrderQuantity > 0 {
		fmt.Fprintf(&sb, "Minimum order: %d\n", p.MinOrderQuantity)
	}
	fmt.Fprintf(&sb, "Supplier: %s", p.Supplier.Name)
	if p.Supplier.Verified() {
		sb.WriteString(" " + styles.Badge.Render("[verified]"))
	}
	sb.WriteString("\n")
	if img := p.PrimaryImage(); img != "" {
		fmt.Fprintf(&sb, "Image: %s\n", img)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func newCategoriesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List catalog categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.Application, out *OutputFormatter) error {
				list, err := a.Categories(ctx)
				if err != nil {
					return failed(err)
				}
				return out.Success(list, func(w io.Writer) error {
					for _, c := range list {
						line := fmt.Sprintf("%s (%d)", c.Name, c.Count)
						if len(c.Subcategories) > 0 {
							line += ": " + strings.Join(c.Subcategories, ", ")
						}
						if _, err := fmt.Fprintln(w, line); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
}

func newSearchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "search <query...>",
		Short:   "Search products",
		Example: `  storefront search iphones 15 pro max`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return opts.run(cmd, func(ctx context.Context, a *app.Application, out *OutputFormatter) error {
				a.SetPage("/search")
				results := views.NewSearchResults(a, query)
				defer results.Unmount()
				if err := results.Mount(ctx); err != nil {
					return failed(err)
				}
				return out.Success(results.Result(), results.Render)
			})
		},
	}
}
