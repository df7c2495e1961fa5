// The scheduler binary runs the follow-up reminder dispatcher loop. It polls
// for due tasks on a fixed interval and exits cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/arogya-health/booking-platform/internal/appointments"
	appconfig "github.com/arogya-health/booking-platform/internal/config"
	"github.com/arogya-health/booking-platform/internal/dinodial"
	"github.com/arogya-health/booking-platform/internal/doctors"
	"github.com/arogya-health/booking-platform/internal/followup"
	"github.com/arogya-health/booking-platform/internal/notify"
	"github.com/arogya-health/booking-platform/internal/observability/metrics"
	"github.com/arogya-health/booking-platform/internal/patients"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting follow-up scheduler",
		"poll_interval", cfg.FollowUpPollInterval.String(),
		"rate_limit_cooldown", cfg.RateLimitCooldown.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	provider, err := dinodial.New(dinodial.Config{
		BaseURL:     cfg.DinodialBaseURL,
		Token:       cfg.DinodialToken,
		AdminToken:  cfg.DinodialAdminToken,
		PhoneNumber: cfg.DinodialPhone,
		VADEngine:   cfg.DinodialVADEngine,
		Timeout:     cfg.DinodialTimeout,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to configure voice provider", "error", err)
		os.Exit(1)
	}

	var whatsapp notify.WhatsAppSender
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		whatsapp = notify.NewTwilioWhatsAppSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	} else {
		logger.Warn("Twilio credentials absent, WhatsApp reminders will be logged only")
		whatsapp = notify.NewLogWhatsAppSender(logger)
	}
	messenger := notify.NewService(whatsapp, nil, "", logger)

	dispatcher := followup.NewDispatcher(followup.DispatcherConfig{
		Tasks:        followup.NewStore(pool),
		Appointments: appointments.NewStore(pool),
		Patients:     patients.NewStore(pool),
		Doctors:      doctors.NewStore(pool),
		Messenger:    messenger,
		Caller:       provider,
		Backoff:      followup.BackoffPolicy{Cooldown: cfg.RateLimitCooldown},
		Logger:       logger,
		Metrics:      metrics.NewDispatcherMetrics(nil),
	})

	ticker := time.NewTicker(cfg.FollowUpPollInterval)
	defer ticker.Stop()

	for {
		processed, err := dispatcher.ProcessDue(ctx)
		if err != nil {
			logger.Error("dispatcher tick failed", "error", err)
		} else if processed > 0 {
			logger.Info("dispatcher tick complete", "processed", processed)
		}

		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}
