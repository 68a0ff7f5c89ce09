// Package entrypoint assembles the service and runs the HTTP server.
package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/kindledeck/internal/cachestore"
	"github.com/mrlokans/kindledeck/internal/config"
	"github.com/mrlokans/kindledeck/internal/dictionary"
	http_controllers "github.com/mrlokans/kindledeck/internal/http"
	"github.com/mrlokans/kindledeck/internal/language"
	"github.com/mrlokans/kindledeck/internal/pipeline"
	"github.com/mrlokans/kindledeck/internal/scheduler"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the converter pipeline, cache and scheduler together and
// serves the API.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting Kindledeck v%s", version)

	var store *cachestore.Store
	if cfg.Cache.Enabled {
		var err error
		store, err = cachestore.Open(cfg.Cache.DBPath)
		if err != nil {
			log.Fatalf("Failed to open definition cache: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("Error closing definition cache: %v", err)
			}
		}()
		log.Printf("Definition cache initialized at %s", cfg.Cache.DBPath)
	} else {
		log.Printf("Definition cache disabled, every run hits the dictionary API")
	}

	client := dictionary.NewFreeDictionaryClient(cfg.Dictionary.BaseURL, cfg.Dictionary.RateLimitInterval)

	// A nil *cachestore.Store must become a nil interface, not a typed nil.
	var resolverStore dictionary.Store
	if store != nil {
		resolverStore = store
	}
	resolver := dictionary.NewResolver(client, cfg.Enrichment.FallbackLanguage, resolverStore)

	p := pipeline.New(language.NewDetector(), resolver, cfg.Enrichment.Workers)

	pruner := scheduler.NewCachePruneScheduler(store, cfg.Cache.PruneSchedule, cfg.Cache.Retention)
	if err := pruner.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start cache prune scheduler: %v", err)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Pipeline:      p,
		MaxUploadSize: cfg.Uploads.MaxSize,
		Version:       version,
	})

	onShutdown := func(ctx context.Context) {
		pruner.Stop()
	}

	Serve(router, cfg, onShutdown)
}
