package cli

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/seed"
	"github.com/spf13/cobra"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	Root               *RootOptions
	RandomizeDiscounts bool
	RandSeed           int64
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{Root: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the seed catalog into MongoDB",
		Long: `Upsert the seed catalog into the products collection.

Existing products with the same id are overwritten, so the command can be
re-run. With --randomize-discounts every product gets a 10-30% discount.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.RandomizeDiscounts, "randomize-discounts", false, "assign a random 10-30% discount to every product")
	cmd.Flags().Int64Var(&opts.RandSeed, "rand-seed", 0, "seed for --randomize-discounts (0 uses the current time)")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *SeedOptions) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, opts.Root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	products := seed.Catalog()
	if opts.RandomizeDiscounts {
		s := opts.RandSeed
		if s == 0 {
			s = time.Now().UnixNano()
		}
		seed.RandomizeDiscounts(products, rand.New(rand.NewSource(s)))
	}

	repo := repository.NewProductRepository(a.db)
	if err := seed.Load(ctx, repo, products); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	a.log.Info("catalog seeded", "products", len(products), "randomized", opts.RandomizeDiscounts)
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", len(products))
	return nil
}
