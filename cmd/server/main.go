package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pagegate/internal/config"
	"pagegate/internal/gate"
	"pagegate/internal/handler"
	"pagegate/internal/hashing"
	"pagegate/internal/ratelimit"
	"pagegate/internal/token"
	"pagegate/internal/util"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		util.Fatal("Failed to load configuration", util.ErrorField(err))
	}

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)
	defer util.Sync()

	hasher := hashing.NewHasher(hashing.DefaultParams())
	passwordHash := cfg.Auth.PasswordHash
	if passwordHash == "" {
		passwordHash, err = hasher.Hash(cfg.Auth.Password)
		if err != nil {
			util.Fatal("Failed to hash configured password", util.ErrorField(err))
		}
	}

	sessionGate := gate.New(cfg.Auth.Username, passwordHash, hasher, cfg.SessionIdleTimeout())
	codec := token.NewCodec(cfg.SecretKey)
	loginRate := ratelimit.New(5, 10)

	pages, err := handler.NewPageHandler(sessionGate, codec, loginRate, util.Get())
	if err != nil {
		util.Fatal("Failed to initialize page handler", util.ErrorField(err))
	}
	router := handler.NewRouter(pages, util.Get())

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		util.Info("Server started",
			util.String("environment", cfg.Environment),
			util.String("address", server.Addr),
			util.Duration("session_idle_timeout", cfg.SessionIdleTimeout()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		util.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		util.Fatal("Server exited with error", util.ErrorField(err))
	}
	util.Info("Server shutdown completed")
}
