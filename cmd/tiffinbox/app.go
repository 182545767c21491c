package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nileshk/tiffinbox/internal/db"
	"github.com/nileshk/tiffinbox/internal/handlers"
	"github.com/nileshk/tiffinbox/internal/logger"
	"github.com/nileshk/tiffinbox/internal/repository/postgres"
	"github.com/nileshk/tiffinbox/internal/service/auth"
	"github.com/nileshk/tiffinbox/internal/service/auth/tokenmanager"
	"github.com/nileshk/tiffinbox/internal/service/delivery"
	"github.com/nileshk/tiffinbox/internal/service/order"
	"github.com/nileshk/tiffinbox/internal/service/tiffin"
	"github.com/nileshk/tiffinbox/internal/service/user"
	"github.com/nileshk/tiffinbox/internal/service/wallet"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	fee, err := decimal.NewFromString(c.DeliveryFee)
	if err != nil {
		return nil, fmt.Errorf("invalid delivery fee %q: %w", c.DeliveryFee, err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, storage.Refresh())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	userService := user.NewService(nil, storage)
	authService, err := auth.NewService(tokenManager, userService)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	walletService := wallet.NewService(storage)
	tiffinService := tiffin.NewService(storage)
	orderService := order.NewService(order.Config{}, storage)
	deliveryService := delivery.NewService(delivery.Config{Fee: fee}, storage)

	mux := handlers.NewRouter(handlers.RouterServices{
		Auth:     authService,
		Verifier: authService,
		Users:    userService,
		Wallet:   walletService,
		Tiffin:   tiffinService,
		Order:    orderService,
		Delivery: deliveryService,
	}, log)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Logger:     log,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.Logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
