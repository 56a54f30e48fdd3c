package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/psds-microservice/watchparty-service/internal/config"
	"github.com/psds-microservice/watchparty-service/internal/handler"
	"github.com/psds-microservice/watchparty-service/internal/registry"
	"github.com/psds-microservice/watchparty-service/internal/router"
	"github.com/psds-microservice/watchparty-service/internal/service"
	"github.com/psds-microservice/watchparty-service/internal/store"
	"go.uber.org/zap"
)

// API is the HTTP + WebSocket API application.
type API struct {
	cfg    *config.Config
	srv    *http.Server
	mgr    *service.LifecycleManager
	logger *zap.Logger
}

// NewAPI creates the API application: validates config, wires the stores,
// hub and services, builds the router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}

	reg := registry.New()
	partyStore := store.New()
	hub := service.NewPartyHub(logger)
	mgr := service.NewLifecycleManager(partyStore, reg, hub, cfg, logger)
	relay := service.NewEventRelay(mgr, logger)

	partyHandler := handler.NewPartyHandler(mgr)
	partyWS := handler.NewPartyWSHandler(hub, reg, mgr, relay, cfg, logger)
	health := handler.NewHealthHandler(mgr)

	r := router.New(partyHandler, partyWS, health)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, mgr: mgr, logger: logger}, nil
}

// Run starts the HTTP server and the background loops, blocks until ctx is
// cancelled, then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	defer a.logger.Sync()

	addr := a.srv.Addr
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  Party lookup:  %s/api/party/:id", base)
	log.Printf("  WebSocket:     ws://%s:%s/ws", host, a.cfg.HTTPPort)

	go a.sweepLoop(ctx)
	go a.statsLoop(ctx)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// sweepLoop deletes idle parties past the TTL on a fixed interval.
func (a *API) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := a.mgr.SweepExpired(now); n > 0 {
				a.logger.Info("sweep finished", zap.Int("swept", n))
			}
		}
	}
}

// statsLoop logs aggregate counters every 5 minutes.
func (a *API) statsLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := a.mgr.Stats()
			a.logger.Info("watch party stats",
				zap.Int("total_parties", stats.TotalParties),
				zap.Int("active_parties", stats.ActiveParties),
				zap.Int("total_clients", stats.TotalClients))
		}
	}
}
