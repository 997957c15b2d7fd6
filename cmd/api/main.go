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
	"github.com/zhouzirui/marvelous/backend/internal/config"
	"github.com/zhouzirui/marvelous/backend/internal/handler"
	"github.com/zhouzirui/marvelous/backend/internal/model/character"
	characterservice "github.com/zhouzirui/marvelous/backend/internal/service/character"
	"github.com/zhouzirui/marvelous/backend/internal/service/feed"
	"github.com/zhouzirui/marvelous/backend/internal/storage/jsonfile"
)

var shutdownTimeout = 10 * time.Second

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
	log.Printf("loaded %s", cfg)

	store, err := newStore(cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize character store: %v", err)
	}

	hub := feed.NewHub()
	characterService := characterservice.NewService(store, hub)

	router := handler.NewRouter(characterService, hub, handler.Options{
		UIEnabled:  cfg.UI.Enabled,
		CORSOrigin: cfg.Server.CORSOrigin,
	})

	startServer(ctx, cfg.Server, router)
}

func newStore(storageCfg config.StorageConfig) (character.Store, error) {
	if storageCfg.Kind == config.StorageMemory {
		log.Println("using in-memory character store, data is lost on exit")
		return character.NewMemoryStore(nil), nil
	}

	if storageCfg.CreateIfMissing {
		created, err := jsonfile.Ensure(storageCfg.DataFile)
		if err != nil {
			return nil, err
		}
		if created {
			log.Printf("created empty character store at %s", storageCfg.DataFile)
		}
	}
	log.Printf("using character store %s", storageCfg.DataFile)
	return jsonfile.New(storageCfg.DataFile), nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Marvelous backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[server] graceful shutdown failed: %v", err)
		}
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
