package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"prooftree/internal/agent/maestro"
	"prooftree/internal/auth"
	"prooftree/internal/config"
	"prooftree/internal/domain/repositories"
	"prooftree/internal/handler"
	"prooftree/internal/repository/postgres"
	serviceLLM "prooftree/internal/service/llm"
	serviceProof "prooftree/internal/service/proof"
	"prooftree/internal/telemetry"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "prooftree")
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	// Analysis archive (optional)
	var archive repositories.AnalysisRepository
	var healthArchive handler.Pinger
	if cfg.DatabaseURL != "" {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns))
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		repo := postgres.NewAnalysisRepository(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		})
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare analysis table: %v", err)
		}
		archive = repo
		healthArchive = repo
		logger.Info("analysis archive enabled")
	} else {
		logger.Warn("DATABASE_URL not set - analyses will not be archived")
	}

	// Optional bearer-token auth
	var verifier auth.JWTVerifier
	if cfg.AuthJWKSURL != "" {
		verifier, err = auth.NewJWTVerifier(ctx, cfg.AuthJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
	} else {
		logger.Warn("AUTH_JWKS_URL not set - API routes are unauthenticated")
	}

	providers := serviceLLM.SetupProviders(cfg, logger)

	if cfg.AI21APIKey == "" {
		logger.Warn("AI21_API_KEY not set - node validation will report errors")
	}
	agent := maestro.NewClient(cfg.AI21BaseURL, cfg.AI21APIKey, logger,
		maestro.WithPollTimeout(cfg.AgentPollTimeout),
	)

	proofService, err := serviceProof.SetupService(cfg, providers, agent, archive, logger)
	if err != nil {
		log.Fatalf("Failed to setup proof service: %v", err)
	}

	router := handler.NewRouter(handler.RouterConfig{
		Proof:          handler.NewProofHandler(proofService, cfg, logger),
		Health:         handler.NewHealthHandler(healthArchive, logger),
		Models:         handler.NewModelsHandler(cfg, providers),
		Verifier:       verifier,
		ArchiveEnabled: archive != nil,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	// CORS wraps the router so OPTIONS pre-flight never reaches auth
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 15 * time.Second,
		// Validation runs one agent run per node; the router's timeout
		// middleware bounds each request instead.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
