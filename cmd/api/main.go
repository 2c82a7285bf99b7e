package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openslot/booking-api/internal/config"
	"github.com/openslot/booking-api/internal/handler"
	bookingapi "github.com/openslot/booking-api/internal/handler/booking"
	dashboardapi "github.com/openslot/booking-api/internal/handler/dashboard"
	serviceapi "github.com/openslot/booking-api/internal/handler/service"
	"github.com/openslot/booking-api/internal/middleware"
	"github.com/openslot/booking-api/internal/repository/postgres"
	"github.com/openslot/booking-api/internal/router"
	"github.com/openslot/booking-api/internal/service/booking"
	"github.com/openslot/booking-api/internal/service/catalog"
	"github.com/openslot/booking-api/internal/service/dashboard"
	"github.com/openslot/booking-api/internal/service/notification"
	"github.com/openslot/booking-api/pkg/logger"
	"github.com/openslot/booking-api/pkg/metrics"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	serviceRepo := postgres.NewServiceRepository(base)
	bookingRepo := postgres.NewBookingRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	m := metrics.NewMetrics(prometheus.DefaultRegisterer, "booking")

	catalogSvc := catalog.NewService(serviceRepo, log)
	notifier := notification.NewService(outboxRepo)
	bookingSvc := booking.NewService(bookingRepo, catalogSvc, notifier, log, m)
	dashboardSvc := dashboard.NewService(serviceRepo, bookingRepo)

	auth := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(
		auth,
		serviceapi.NewHandler(catalogSvc),
		bookingapi.NewHandler(bookingSvc),
		dashboardapi.NewHandler(dashboardSvc),
		handler.NewHandler(db),
		router.Config{
			RateLimitRPS:   rateLimitRPS(cfg.RateLimit),
			RateLimitBurst: cfg.RateLimit.Burst,
			RequestTimeout: cfg.Server.RequestTimeout,
			CORSConfig:     corsConfig(cfg.CORS),
			MetricsPrefix:  "booking_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "forced shutdown")
	}
}

func rateLimitRPS(cfg config.RateLimitConfig) float64 {
	if !cfg.Enabled {
		return 0
	}
	return cfg.RPS
}

func corsConfig(cfg config.CORSConfig) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	if len(cfg.AllowedOrigins) > 0 {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return c
}
