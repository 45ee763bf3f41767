// README: Entry point; loads config, wires services, starts HTTP server and background flushers.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kolekta/internal/backend"
	"kolekta/internal/config"
	httptransport "kolekta/internal/http"
	"kolekta/internal/infra"
	"kolekta/internal/maps"
	"kolekta/internal/modules/location"
	"kolekta/internal/modules/route"
	"kolekta/internal/modules/session"
	"kolekta/internal/modules/zone"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := infra.NewLogger("kolekta-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("KOLEKTA_FIREBASE_PROJECT_ID is required")
	}
	rtdb, err := infra.NewFirebaseDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.DatabaseURL, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, backend.ContextToken)

	sessionStore := session.NewStore(redisClient, cfg.Session.TTL)
	sessionSvc := session.NewService(sessionStore, client, logger)

	routeQueue := route.NewPatchQueue(redisClient)
	routeSvc := route.NewService(client, routeQueue, logger)

	locationStore := location.NewStore(redisClient)
	locationSvc := location.NewService(locationStore, location.NewFirebasePublisher(rtdb), logger)

	zoneSvc := zone.NewService(client)

	var directions *maps.RouteService
	if cfg.Maps.APIKey != "" {
		directions, err = maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
	}

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Route:      routeSvc,
		Session:    sessionSvc,
		Location:   locationSvc,
		Zone:       zoneSvc,
		Directions: directions,
		Log:        logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go routeSvc.RunQueueFlusher(ctx, cfg.Flush.Interval)
	go locationSvc.RunFlusher(ctx, cfg.Flush.Interval)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("server starting", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
