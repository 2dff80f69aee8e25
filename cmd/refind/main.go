package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/refind-app/refind/internal/config"
	dbRedis "github.com/refind-app/refind/internal/db/redis"
	"github.com/refind-app/refind/internal/domain"
	"github.com/refind-app/refind/internal/domain/classify"
	"github.com/refind-app/refind/internal/domain/geo"
	"github.com/refind-app/refind/internal/domain/taxonomy"
	logpkg "github.com/refind-app/refind/internal/logger"
	"github.com/refind-app/refind/internal/metrics"
	itemrepo "github.com/refind-app/refind/internal/repository/item"
	vectorrepo "github.com/refind-app/refind/internal/repository/vector"
	chiTransport "github.com/refind-app/refind/internal/transport/chi"
	openaiAI "github.com/refind-app/refind/internal/transport/openai"
	healthuc "github.com/refind-app/refind/internal/usecase/health"
	ingestuc "github.com/refind-app/refind/internal/usecase/ingest"
	ledgeruc "github.com/refind-app/refind/internal/usecase/ledger"
	matchuc "github.com/refind-app/refind/internal/usecase/match"
	recheckuc "github.com/refind-app/refind/internal/usecase/recheck"
	"github.com/refind-app/refind/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting refind match core",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register matching metrics explicitly (no init())
	metrics.RegisterMatchingMetrics()

	// AI collaborators share one provider config
	aiCfg := &openaiAI.Config{
		APIKey:     cfg.AI.APIKey,
		BaseURL:    cfg.AI.BaseURL,
		Model:      cfg.AI.EmbeddingModel,
		Dimensions: cfg.AI.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	}
	embedder := openaiAI.NewEmbedder(aiCfg)
	summarizer := openaiAI.NewSummarizer(aiCfg, cfg.AI.SummaryModel)

	// Keep the interface nil when vision is off (a typed nil pointer wrapped
	// in the interface would not compare equal to nil).
	var vision domain.ImageAnalyzer
	if cfg.AI.VisionModel != "" {
		vision = openaiAI.NewVision(aiCfg, cfg.AI.VisionModel)
	}
	logger.Info("AI provider configured",
		zap.String("embedding_model", cfg.AI.EmbeddingModel),
		zap.Int("dimensions", cfg.AI.Dimensions),
		zap.String("vision_model", cfg.AI.VisionModel),
		zap.String("summary_model", cfg.AI.SummaryModel),
	)

	// Repositories
	items := itemrepo.New(store, cfg.Storage.KeyPrefix)
	vectors := vectorrepo.New(store, cfg.Storage.KeyPrefix)

	if err := vectors.EnsureIndex(ctx, cfg.AI.Dimensions,
		cfg.Matching.HNSWM, cfg.Matching.HNSWEFConstruct); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}

	// Taxonomy tables: embedded defaults, overridable per deployment
	tax := taxonomy.Default()
	if cfg.Matching.TaxonomyPath != "" {
		data, err := os.ReadFile(cfg.Matching.TaxonomyPath)
		if err != nil {
			logger.Fatal("Failed to read taxonomy tables", zap.Error(err))
		}
		tax, err = taxonomy.Parse(data)
		if err != nil {
			logger.Fatal("Failed to parse taxonomy tables", zap.Error(err))
		}
		logger.Info("Loaded taxonomy tables", zap.String("path", cfg.Matching.TaxonomyPath))
	}

	// Use case services
	retriever := matchuc.NewRetriever(vectors, cfg.Matching.TopK, cfg.Matching.SelfMatchScore)
	pipeline := matchuc.NewPipeline(
		items, retriever,
		classify.New(tax),
		geo.NewGate(cfg.Matching.MaxDistanceKM),
		matchuc.Config{
			ScoreThreshold:    cfg.Matching.ScoreThreshold,
			OverrideThreshold: cfg.Matching.OverrideThreshold,
			FetchConcurrency:  cfg.Matching.FetchConcurrency,
		},
	)
	ledgerSvc := ledgeruc.New(items)

	ingestSvc := ingestuc.New(items, vectors, vision, summarizer, embedder,
		pipeline, ledgerSvc, time.Duration(cfg.Matching.UpsertTimeoutSec)*time.Second)
	recheckSvc := recheckuc.New(items, embedder, pipeline, ledgerSvc)
	healthSvc := healthuc.New(store, embedder)

	server := chiTransport.NewServer(ingestSvc, recheckSvc, items, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
