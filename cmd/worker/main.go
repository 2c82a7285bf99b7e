package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/openslot/booking-api/internal/config"
	"github.com/openslot/booking-api/internal/email"
	"github.com/openslot/booking-api/internal/repository/postgres"
	"github.com/openslot/booking-api/pkg/logger"
	redisbroker "github.com/openslot/booking-api/pkg/messaging/redis"
	"github.com/openslot/booking-api/pkg/metrics"
	"github.com/openslot/booking-api/pkg/worker"
)

// workerEnv is the worker's full configuration, taken from the
// environment with the BOOKING_ prefix (e.g. BOOKING_DB_HOST).
type workerEnv struct {
	DBHost         string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort         int           `envconfig:"DB_PORT" default:"5432"`
	DBUser         string        `envconfig:"DB_USER" default:"postgres"`
	DBPassword     string        `envconfig:"DB_PASSWORD"`
	DBName         string        `envconfig:"DB_NAME" default:"booking"`
	DBSSLMode      string        `envconfig:"DB_SSLMODE" default:"disable"`
	RedisURL       string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	SMTPHost       string        `envconfig:"SMTP_HOST"`
	SMTPPort       int           `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername   string        `envconfig:"SMTP_USERNAME"`
	SMTPPassword   string        `envconfig:"SMTP_PASSWORD"`
	SMTPFrom       string        `envconfig:"SMTP_FROM" default:"bookings@openslot.dev"`
	BatchSize      int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval   time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	RedisPoolSize  int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	RedisIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
}

func main() {
	log := logger.NewLogger(nil)

	var env workerEnv
	if err := envconfig.Process("booking", &env); err != nil {
		log.Fatal(err, "failed to load worker environment")
	}

	db, err := postgres.NewDB(config.DatabaseConfig{
		Host:         env.DBHost,
		Port:         env.DBPort,
		User:         env.DBUser,
		Password:     env.DBPassword,
		Name:         env.DBName,
		SSLMode:      env.DBSSLMode,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	})
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          env.RedisURL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     env.RedisPoolSize,
		MinIdleConns: env.RedisIdleConns,
	}, &zl)
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)
	contactRepo := postgres.NewContactRepository(base)

	var mailer email.Sender
	if env.SMTPHost != "" {
		mailer = email.NewSender(config.SMTPConfig{
			Host:     env.SMTPHost,
			Port:     env.SMTPPort,
			Username: env.SMTPUsername,
			Password: env.SMTPPassword,
			From:     env.SMTPFrom,
		})
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer, "booking_worker")

	dispatcher := worker.NewNotificationDispatcher(
		outboxRepo,
		contactRepo,
		broker,
		mailer,
		worker.NotificationDispatcherConfig{
			BatchSize:    env.BatchSize,
			PollInterval: env.PollInterval,
		},
		log,
		m,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		dispatcher.Start(ctx)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker")
	cancel()
	<-done
}
