package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atlascrm/internal/config"
	"atlascrm/internal/infra"
	"atlascrm/internal/repository"
	"atlascrm/internal/router"
	"atlascrm/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title Atlas CRM API
// @version 1.0
// @description Gestion commerciale d'une régie d'affichage: devis, factures, paiements, trésorerie.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in development, JSON in production
	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, err := infra.NewStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("failed to open storage")
	}
	if c, ok := storage.(io.Closer); ok {
		defer c.Close()
	}

	smtpBreaker := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	mailer := infra.NewMailer(cfg, smtpBreaker)
	if !mailer.Configured() {
		log.Warn().Msg("SMTP_HOST not set: document and reminder mails will fail")
	}

	dispatcher := worker.NewDispatcher(rdb)
	svcs := router.NewServices(cfg, db, rdb, storage, dispatcher)

	// Worker handlers are wired here (composition root) so that the pool
	// has access to the services it calls back into.
	pool := worker.NewPool(rdb, cfg.WorkerPoolSize)
	pool.Handle(worker.JobSendDocument, worker.NewDocumentWorker(svcs.Documents, mailer))
	pool.Handle(worker.JobEmail, worker.NewEmailWorker(mailer))
	pool.Start(ctx)

	if _, err := worker.StartReminderCron(ctx, worker.ReminderConfig{
		Schedule: cfg.ReminderSchedule,
		Invoices: repository.NewReportRepository(db),
		Queue:    dispatcher,
		Breaker:  smtpBreaker,
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to start reminder cron")
	}

	r := router.New(cfg, db, rdb, svcs, smtpBreaker)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("Atlas CRM backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	pool.Wait()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rdb.Close()
	log.Info().Msg("server exited")
}
