package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/reconcile"
	"github.com/mmynk/splitledger/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Connect RPC server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	ttl, err := cfg.TokenDuration()
	if err != nil {
		return err
	}
	shutdownTimeout, err := cfg.ShutdownDuration()
	if err != nil {
		return err
	}

	reconciler := reconcile.New(
		reconcile.WithCurrency(cfg.Ledger.Currency),
		reconcile.WithDefaultPayer(cfg.Ledger.DefaultPayer),
	)
	srv := service.NewServer(store, store, auth.NewJWTManager(cfg.Auth.JWTSecret, ttl), reconciler, cfg.Ledger.Currency)
	srv.EnableMetrics()

	// h2c serves Connect and gRPC-Web JSON over cleartext HTTP/2.
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(srv.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Connect server starting", "address", httpServer.Addr, "currency", cfg.Ledger.Currency.Code)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down", "timeout", shutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server failed", "error", err)
		return err
	}
	slog.Info("Server stopped")
	return nil
}
