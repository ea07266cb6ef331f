package main

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lucasavelar/agendly/libs/config"
	"github.com/lucasavelar/agendly/libs/db"
	"github.com/lucasavelar/agendly/libs/httpx"
	"github.com/lucasavelar/agendly/libs/kafkax"
	otelx "github.com/lucasavelar/agendly/libs/otel"
	"github.com/lucasavelar/agendly/libs/runtime"
	"github.com/lucasavelar/agendly/services/reminder-service/internal/outbox"
	"github.com/lucasavelar/agendly/services/reminder-service/internal/storage"
	"github.com/lucasavelar/agendly/services/reminder-service/internal/sweep"
	"github.com/lucasavelar/agendly/services/reminder-service/internal/whatsapp"
)

func main() {
	service := config.String("SERVICE_NAME", "reminder-service")
	port, err := config.Port("PORT", "8082")
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

	var sender sweep.Sender
	if url := config.String("WHATSAPP_WEBHOOK_URL", ""); url != "" {
		sender = whatsapp.NewWebhookSender(url, config.String("WHATSAPP_TOKEN", ""))
	} else {
		logger.Warn("no whatsapp gateway configured, reminders logged only")
		sender = whatsapp.NewNoopSender(logger)
	}

	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	apptRepo := storage.NewAppointmentRepository(pool)
	reminderRepo := storage.NewReminderRepository(pool, outboxRepo, sender.ProviderID())

	sweeper := sweep.NewSweeper(apptRepo, reminderRepo, sender, logger, sweep.Config{
		Timeout: config.Minutes("SWEEP_TIMEOUT_MINUTES", 2*time.Minute),
	})
	go sweeper.Run(ctx, config.Minutes("SWEEP_INTERVAL_MINUTES", 5*time.Minute))

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/internal/sweep", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		summary, err := sweeper.RunOnce(r.Context())
		if err != nil {
			logger.Error("manual sweep failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "sweep failed")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, summary)
	})

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
	)
	handler = otelhttp.NewHandler(handler, "reminder")
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
