package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/config"
	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/modules/drafts"
	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/modules/metrics"
	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/modules/orders"
	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/modules/tracking"
	"github.com/Rooneyk1907/Delivery-Tracker-Assistant/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pool, err := storage.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := storage.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	// Repositories and services.
	orderRepo := orders.NewRepository(pool)
	orderSvc := orders.NewService(orderRepo)

	shiftRepo := tracking.NewRepository(pool)
	trackSvc := tracking.NewService(shiftRepo, orderSvc, cfg.CostPerMile)
	if err := trackSvc.Resume(ctx); err != nil {
		log.Fatalf("failed to resume shift: %v", err)
	}

	draftRepo := drafts.NewRepository(pool)
	draftSvc := drafts.NewService(draftRepo, orderSvc, cfg.CostPerMile)

	// Router.
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
	}))

	api := e.Group("/api")
	orders.NewHandler(orderSvc).RegisterRoutes(api)
	tracking.NewHandler(trackSvc).RegisterRoutes(api)
	metrics.NewHandler(orderSvc, cfg.CostPerMile).RegisterRoutes(api)
	drafts.NewHandler(draftSvc).RegisterRoutes(api)

	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
