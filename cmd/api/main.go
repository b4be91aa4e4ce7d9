package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/orchestra-ai/internal/advisor"
	"github.com/dvloznov/orchestra-ai/internal/api/handlers"
	"github.com/dvloznov/orchestra-ai/internal/api/hub"
	"github.com/dvloznov/orchestra-ai/internal/cashflow"
	"github.com/dvloznov/orchestra-ai/internal/config"
	"github.com/dvloznov/orchestra-ai/internal/jobs/inmemory"
	"github.com/dvloznov/orchestra-ai/internal/logger"
	"github.com/dvloznov/orchestra-ai/internal/reportstore"
	"github.com/dvloznov/orchestra-ai/internal/session"
	"github.com/dvloznov/orchestra-ai/internal/simulator"
	"github.com/dvloznov/orchestra-ai/internal/snapshot"
	"github.com/spf13/viper"
)

func main() {
	// Parse command-line flags
	port := flag.String("port", "", "HTTP server port (or set PORT env)")
	flag.Parse()

	v := viper.New()
	if *port != "" {
		v.Set(config.KeyPort, *port)
	}
	cfg, err := config.Load(v)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize logger
	log := logger.Configure(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	adv := advisor.New(ctx, advisor.Config{
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		Timeout:  cfg.AITimeout,
		CacheTTL: cfg.AICacheTTL,
	}, log)
	if c, ok := adv.(interface{ Close() }); ok {
		defer c.Close()
	}

	seed := cfg.DemoSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sess := session.New(snapshot.NewStore(snapshot.Seed()), cashflow.NewGenerator(seed), log)

	// Push every committed snapshot change to WebSocket clients
	events := hub.New(log)
	sess.Store().Subscribe(events.OnSnapshotEvent)

	var archive handlers.ReportArchive
	if cfg.ReportBucket != "" {
		writer, err := reportstore.NewGCSWriter(ctx, cfg.CredentialsFile)
		if err != nil {
			log.Warn().Err(err).Msg("Report archiving disabled")
		} else {
			defer writer.Close()
			archive = reportstore.New(writer, cfg.ReportBucket)
			log.Info().Str("bucket", cfg.ReportBucket).Msg("Archiving investor reports")
		}
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.WithLogger(log))

	sim := simulator.NewHandler(sess, log)
	sim.SyncDelay = cfg.SyncDelay
	sim.UploadDelay = cfg.UploadDelay

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, sim.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	router := handlers.NewRouter(handlers.Deps{
		Session:   sess,
		Advisor:   adv,
		Publisher: jobQueue,
		JobStore:  jobStore,
		Events:    events,
		WebSocket: events,
		Archive:   archive,
		Log:       log,
	})

	// Advisor calls may run up to AITimeout before answering
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Bool("live_advisor", cfg.LiveAdvisor()).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := events.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close WebSocket hub")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Cancel worker context so simulated waits end early
	cancelWorker()

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
