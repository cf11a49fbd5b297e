package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/storefront/internal/app"
	"github.com/R3E-Network/storefront/internal/app/views"
)

func newRecommendCommand(opts *RootOptions) *cobra.Command {
	var max int
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Show recommended products",
		Long:  "Show recommendations for the signed-in user, or for this session when signed out.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.Application, out *OutputFormatter) error {
				strip := views.NewRecommendationsStrip(a, max)
				defer strip.Unmount()
				_ = strip.Mount(ctx)
				return out.Success(a.Snapshot().Recommendations, strip.Render)
			})
		},
	}
	cmd.Flags().IntVar(&max, "max", 0, "maximum entries to show (0 for all)")
	return cmd
}
