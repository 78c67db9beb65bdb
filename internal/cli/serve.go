package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/go_shop/internal/events"
	h "github.com/fjod/go_shop/internal/http"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/service"
	"github.com/fjod/go_shop/internal/sessions"
	"github.com/spf13/cobra"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Root         *RootOptions
	WithConsumer bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{Root: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until SIGINT or SIGTERM.

Configuration is read from the environment (and a .env file when present).
With --with-consumer the order event consumer runs in the same process,
which is the only way to use it with STORE_BACKEND=memory.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.WithConsumer, "with-consumer", false, "also consume order events in this process")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, opts.Root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	products := repository.NewProductRepository(a.db)
	orders := repository.NewOrderRepository(a.db)
	users := repository.NewUserRepository(a.db)
	carts := repository.NewCartRepository(a.db)
	if err := repository.EnsureIndexes(ctx, products, orders, users, carts); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	store, err := a.cartStore(ctx, carts)
	if err != nil {
		return err
	}

	catalog := service.NewCatalogService(products)
	orderService := service.NewOrderService(products, orders, a.publisher(), a.log)
	authService := service.NewAuthService(users, cfg.JWTSecret)
	registry := sessions.NewRegistry(store, cfg.SessionCapacity, cfg.SessionTTL, a.log)

	handler := h.NewRouter(h.RouterConfig{
		Catalog:        catalog,
		Orders:         orderService,
		Auth:           authService,
		Tokens:         authService,
		Sessions:       registry,
		Log:            a.log,
		RequestTimeout: cfg.RequestTimeout,
		CORSOrigin:     cfg.CORSOrigin,
	})

	var wg sync.WaitGroup
	if opts.WithConsumer {
		if len(cfg.KafkaBrokers) == 0 {
			return errors.New("--with-consumer needs KAFKA_BROKERS")
		}
		poller := events.NewPoller(store, a.log, cfg.KafkaBrokers...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
		defer func() {
			wg.Wait()
			poller.Close()
		}()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("shop API starting", "port", cfg.HTTPPort, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		stop()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.log.Info("server stopped")
	return nil
}

