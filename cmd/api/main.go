package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mtgstrategist/ui/internal/config"
	"github.com/mtgstrategist/ui/internal/handler"
	"github.com/mtgstrategist/ui/internal/logging"
	"github.com/mtgstrategist/ui/internal/service/backend"
	"github.com/mtgstrategist/ui/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logging: %v", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	backendClient := backend.NewClient(cfg.Backend)
	chatService := chat.NewService(backendClient)
	logger.Info("strategist backend configured",
		"url", cfg.Backend.BaseURL,
		"timeout", cfg.Backend.Timeout.String(),
	)

	router := handler.NewRouter(chatService, cfg.Server.AllowedOrigin, logger)

	if err := startServer(ctx, cfg.Server, router, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *slog.Logger) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("MTG Strategist UI listening", "addr", addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
