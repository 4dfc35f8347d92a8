package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/memorable/backend/internal/config"
	"github.com/zhouzirui/memorable/backend/internal/handler"
	"github.com/zhouzirui/memorable/backend/internal/service/feed"
	"github.com/zhouzirui/memorable/backend/internal/service/todo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var hub *feed.Hub
	var observers []todo.Observer
	if cfg.Feed.Enabled {
		hub = feed.NewHub(cfg.Feed.Buffer)
		observers = append(observers, hub)
		log.Println("todo change feed enabled")
	} else {
		log.Println("todo change feed disabled by configuration")
	}

	todoStore := todo.NewService(observers...)
	if cfg.Server.TrustProxyHeaders {
		log.Println("warning: client identity taken from proxy headers (TRUST_PROXY_HEADERS=true)")
	}

	router := handler.NewRouter(cfg.Server, todoStore, hub)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("[server] Memorable listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv, serverCfg.ShutdownTimeout); err != nil {
		log.Fatalf("[server] error: %v", err)
	}
	log.Println("[server] stopped")
}

func runServer(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
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
