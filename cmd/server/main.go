package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"consentgate/internal/audit"
	"consentgate/internal/consent"
	"consentgate/internal/expiry"
	"consentgate/internal/gate"
	gatehandler "consentgate/internal/gate/handler"
	gatemetrics "consentgate/internal/gate/metrics"
	"consentgate/internal/idempotency"
	jwttoken "consentgate/internal/jwt_token"
	"consentgate/internal/platform/config"
	"consentgate/internal/platform/httpserver"
	"consentgate/internal/platform/logger"
	"consentgate/internal/platform/middleware"
	"consentgate/internal/platform/migrate"
	platformredis "consentgate/internal/platform/redis"
	"consentgate/internal/roster"
	pstrings "consentgate/pkg/platform/strings"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal packages.
func main() {
	log := logger.New()
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	log.Info("connected to postgres")

	if err := migrate.Apply(ctx, db); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("connected to redis")
	}

	hydrator := roster.NewHydrator(roster.NewPostgres(db),
		roster.WithTTL(cfg.CacheTTL),
		roster.WithFailClosed(cfg.FailClosed),
		roster.WithLogger(log),
	)

	recorder := audit.NewRecorder(audit.NewPostgres(db),
		audit.WithMaxRows(cfg.AuditMaxRows),
		audit.WithLogger(log),
	)

	var reporterOpts []expiry.Option
	reporterOpts = append(reporterOpts, expiry.WithLogger(log))
	recipients := pstrings.DedupeAndTrimLower(cfg.ReportRecipients)
	if cfg.SMTPAddr != "" && len(recipients) > 0 {
		mailer := expiry.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
		reporterOpts = append(reporterOpts, expiry.WithMailer(mailer, recipients))
	}
	reporter := expiry.New(hydrator, recorder, reporterOpts...)

	policy := consent.Policy{
		MinorAgeYears: cfg.MinorAgeYears,
		FailClosed:    cfg.FailClosed,
		Global: consent.Redaction{
			AnonymiseFaces:  cfg.GlobalAnonymiseFaces,
			UseInitialsOnly: cfg.GlobalInitialsOnly,
		},
	}

	gateOpts := []gate.Option{
		gate.WithLogger(log),
		gate.WithMetrics(gatemetrics.New()),
		gate.WithExpiryScanner(reporter),
	}
	if redisClient != nil {
		gateOpts = append(gateOpts, gate.WithSeenStore(idempotency.NewRedis(redisClient.Client, cfg.CacheTTL)))
	} else {
		gateOpts = append(gateOpts, gate.WithSeenStore(idempotency.NewInMemory(cfg.CacheTTL, 10_000)))
	}
	gateService := gate.New(hydrator, recorder, policy, gateOpts...)

	jwtService := jwttoken.NewService(cfg.JWTSigningKey, "consentgate")

	router := chi.NewRouter()
	router.Use(middleware.RequestID)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokenValidator{jwtService}, log))
		gatehandler.New(gateService, log, cfg.ExpiryNoticeDays).Register(r)
	})

	go scheduleReports(ctx, reporter, cfg.ReportHour, cfg.ExpiryNoticeDays, log)

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("consent gate starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

// tokenValidator adapts the JWT service to the auth middleware contract.
type tokenValidator struct {
	jwt *jwttoken.Service
}

func (v tokenValidator) ValidateToken(tokenString string) (*middleware.OperatorClaims, error) {
	claims, err := v.jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.OperatorClaims{Operator: claims.Operator, Role: claims.Role}, nil
}

// scheduleReports runs the expiry report once per day at the configured hour.
func scheduleReports(ctx context.Context, reporter *expiry.Reporter, hour, windowDays int, log *slog.Logger) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		report, err := reporter.Report(ctx, windowDays)
		if err != nil {
			log.Error("scheduled expiry report failed", "error", err)
			continue
		}
		log.Info("expiry report complete",
			"expiring", len(report.Expiring),
			"email_sent", report.EmailSent,
		)
	}
}
