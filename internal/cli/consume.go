package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fjod/go_shop/internal/config"
	"github.com/fjod/go_shop/internal/events"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/spf13/cobra"
)

// NewConsumeCommand creates the consume command.
func NewConsumeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Empty stored carts of users who placed an order",
		Long: `Consume order-placed events from Kafka and delete the ordering user's
stored cart snapshot. Runs until SIGINT or SIGTERM.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsume(cmd, rootOpts)
		},
	}
	return cmd
}

func runConsume(cmd *cobra.Command, rootOpts *RootOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, rootOpts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	if len(a.cfg.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is not set")
	}
	if a.cfg.StoreBackend == config.StoreMemory {
		return fmt.Errorf("consume needs a shared store, use serve --with-consumer with STORE_BACKEND=%s", config.StoreMemory)
	}

	store, err := a.cartStore(ctx, repository.NewCartRepository(a.db))
	if err != nil {
		return err
	}

	poller := events.NewPoller(store, a.log, a.cfg.KafkaBrokers...)
	defer poller.Close()

	a.log.Info("order event consumer started", "brokers", a.cfg.KafkaBrokers)
	poller.Run(ctx)
	a.log.Info("order event consumer stopped")
	return nil
}
