package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lucasavelar/agendly/libs/config"
	"github.com/lucasavelar/agendly/libs/db"
	"github.com/lucasavelar/agendly/libs/httpx"
	"github.com/lucasavelar/agendly/libs/kafkax"
	otelx "github.com/lucasavelar/agendly/libs/otel"
	"github.com/lucasavelar/agendly/libs/runtime"
	"github.com/lucasavelar/agendly/services/booking-service/internal/availability"
	"github.com/lucasavelar/agendly/services/booking-service/internal/handlers"
	"github.com/lucasavelar/agendly/services/booking-service/internal/model"
	"github.com/lucasavelar/agendly/services/booking-service/internal/outbox"
	"github.com/lucasavelar/agendly/services/booking-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8081")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	bookingRepo := storage.NewBookingRepository(pool)
	scheduleRepo := storage.NewScheduleRepository(pool)
	slotService := availability.NewService(scheduleRepo, bookingRepo)

	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	bookingHandler := handlers.NewBookingHandler(bookingRepo, slotService, outboxRepo, logger)
	scheduleHandler := handlers.NewScheduleHandler(scheduleRepo, logger)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	}

	// Public endpoints are rate limited: Redis-backed when configured (multi
	// instance), in-process fallback otherwise.
	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)
	var publicLimit httpx.Middleware
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		publicLimit = httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, "booking").Middleware(logger, true)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		publicLimit = httpx.NewRateLimiter(limitPerMinute, time.Minute).Middleware()
		logger.Info("rate limiting enabled (in-process)", "per_minute", limitPerMinute)
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.Handle("/api/v1/public/slots", publicLimit(http.HandlerFunc(bookingHandler.Slots)))
	mux.Handle("/api/v1/public/book", publicLimit(http.HandlerFunc(bookingHandler.Create)))
	mux.HandleFunc("/api/v1/appointments", bookingHandler.List)
	mux.HandleFunc("/api/v1/appointments/confirm", bookingHandler.Transition(model.StatusConfirmed))
	mux.HandleFunc("/api/v1/appointments/complete", bookingHandler.Transition(model.StatusCompleted))
	mux.HandleFunc("/api/v1/appointments/no-show", bookingHandler.Transition(model.StatusNoShow))
	mux.HandleFunc("/api/v1/appointments/cancel", bookingHandler.Transition(model.StatusCancelled))
	mux.HandleFunc("/api/v1/schedule/hours", scheduleHandler.Hours)
	mux.HandleFunc("/api/v1/schedule/blocks", scheduleHandler.Blocks)
	mux.HandleFunc("/api/v1/schedule/blocks/delete", scheduleHandler.DeleteBlock)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
	)
	handler = otelhttp.NewHandler(handler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
