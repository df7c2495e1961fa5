package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/arogya-health/booking-platform/internal/api/router"
	"github.com/arogya-health/booking-platform/internal/appointments"
	"github.com/arogya-health/booking-platform/internal/booking"
	"github.com/arogya-health/booking-platform/internal/calls"
	appconfig "github.com/arogya-health/booking-platform/internal/config"
	"github.com/arogya-health/booking-platform/internal/dinodial"
	"github.com/arogya-health/booking-platform/internal/doctors"
	"github.com/arogya-health/booking-platform/internal/followup"
	"github.com/arogya-health/booking-platform/internal/http/handlers"
	"github.com/arogya-health/booking-platform/internal/notify"
	"github.com/arogya-health/booking-platform/internal/observability/metrics"
	"github.com/arogya-health/booking-platform/internal/patients"
	"github.com/arogya-health/booking-platform/internal/reconcile"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

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

	patientStore := patients.NewStore(pool)
	doctorStore := doctors.NewStore(pool)
	appointmentStore := appointments.NewStore(pool)
	callStore := calls.NewStore(pool)
	taskStore := followup.NewStore(pool)

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
		logger.Warn("Twilio credentials absent, WhatsApp messages will be logged only")
		whatsapp = notify.NewLogWhatsAppSender(logger)
	}
	emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	var email notify.EmailSender
	if emailSender != nil {
		email = emailSender
	}
	notifier := notify.NewService(whatsapp, email, cfg.HospitalAlertEmail, logger)

	var guard *reconcile.DedupeGuard
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()
		guard = reconcile.NewDedupeGuard(rdb, cfg.SyncDedupeTTL)
	} else {
		logger.Warn("Redis not configured, concurrent syncs of the same call are not deduplicated")
	}

	reconciler := reconcile.New(reconcile.Config{
		Pool:         pool,
		Provider:     provider,
		Patients:     patientStore,
		Doctors:      doctorStore,
		Appointments: appointmentStore,
		Calls:        callStore,
		Tasks:        taskStore,
		Notifier:     notifier,
		Guard:        guard,
		Logger:       logger,
		Metrics:      metrics.NewSyncMetrics(nil),
		MessageDelay: cfg.ReminderMessageDelay,
		VoiceDelay:   cfg.ReminderVoiceDelay,
	})

	bookingSvc := booking.NewService(booking.Config{
		Pool:         pool,
		Patients:     patientStore,
		Doctors:      doctorStore,
		Appointments: appointmentStore,
		Calls:        callStore,
		Caller:       provider,
		Logger:       logger,
	})

	scheduler := followup.NewScheduler(taskStore, appointmentStore, cfg.ReminderMessageDelay, cfg.ReminderVoiceDelay)

	var corsOrigins []string
	if cfg.CORSAllowedOrigins != "" {
		corsOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	}

	r := router.New(&router.Config{
		Logger:             logger,
		Patients:           handlers.NewPatientHandler(patientStore, logger),
		Doctors:            handlers.NewDoctorHandler(doctorStore, appointmentStore, patientStore, cfg.DoctorJWTSecret, cfg.DoctorJWTExpiry, logger),
		Appointments:       handlers.NewAppointmentHandler(bookingSvc, appointmentStore, patientStore, doctorStore, logger),
		Calls:              handlers.NewCallHandler(callStore, reconciler, scheduler, provider, logger),
		Stats:              handlers.NewStatsHandler(appointmentStore, patientStore, doctorStore, logger),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: corsOrigins,
		DoctorJWTSecret:    cfg.DoctorJWTSecret,
		WebhookRateLimit:   float64(cfg.WebhookRatePerSecond),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
