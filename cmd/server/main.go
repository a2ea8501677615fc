package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"docintake/internal/analysis"
	"docintake/internal/config"
	"docintake/internal/domain"
	"docintake/internal/handler"
	"docintake/internal/llm"
	"docintake/internal/llm/providers"
	"docintake/internal/logger"
	"docintake/internal/ocr"
	"docintake/internal/repository/postgres"
	"docintake/internal/router"
	"docintake/internal/service"
	s3storage "docintake/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Setup(cfg.Log); err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Repositories
	docRepo := postgres.NewDocumentRepo(db)
	fieldRepo := postgres.NewFieldRepo(db)
	pageRepo := postgres.NewPageRepo(db)

	// Storage
	s3Client, err := s3storage.NewS3Client(ctx, &cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Recognition
	collab, err := ocr.New(ctx, &cfg.OCR, &cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to initialize OCR: %w", err)
	}
	defer func() {
		if cerr := collab.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("closing OCR clients")
		}
	}()

	// LLM extraction (optional)
	providers.Register()
	limiter := llm.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	extractor, err := llm.Build(&cfg.LLM, limiter)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM extractor: %w", err)
	}
	if extractor == nil {
		log.Info().Msg("no LLM provider configured, using local extraction only")
	}

	defaultType, err := domain.ParseDocumentType(cfg.Analysis.DefaultType)
	if err != nil {
		log.Warn().Err(err).Str("default_type", cfg.Analysis.DefaultType).Msg("invalid default type, using generic")
		defaultType = domain.DocumentTypeGeneric
	}
	analyzer := analysis.NewAnalyzer(analysis.AnalyzerConfig{
		DefaultType:   defaultType,
		MinConfidence: cfg.Analysis.MinConfidence,
		Now:           time.Now,
	})

	// Services
	analysisSvc := service.NewAnalysisService(analyzer, extractor)
	ingestSvc := service.NewIngestService(docRepo, fieldRepo, pageRepo, s3Client,
		collab.Recognizer, collab.Transcriber, analysisSvc, service.IngestConfig{
			Bucket:         cfg.S3.Bucket,
			MaxImageBytes:  cfg.Upload.MaxImageBytes(),
			MaxAudioBytes:  cfg.Upload.MaxAudioBytes(),
			MaxFiles:       cfg.Upload.MaxFiles,
			OCRConcurrency: cfg.OCR.Concurrency,
			MaxAttempts:    cfg.Queue.MaxRetries,
		})
	documentSvc := service.NewDocumentService(docRepo, fieldRepo, pageRepo, s3Client, analysisSvc)
	fieldSvc := service.NewFieldService(docRepo, fieldRepo)

	// Handlers
	uploadH := handler.NewUploadHandler(ingestSvc, handler.UploadLimits{
		MaxImageBytes: cfg.Upload.MaxImageBytes(),
		MaxAudioBytes: cfg.Upload.MaxAudioBytes(),
		MaxFiles:      cfg.Upload.MaxFiles,
	})
	r := router.Setup(router.Handlers{
		Analysis: handler.NewAnalysisHandler(analysisSvc),
		Upload:   uploadH,
		Document: handler.NewDocumentHandler(documentSvc),
		Field:    handler.NewFieldHandler(fieldSvc),
		Health:   handler.NewHealthHandler(db),
	}, cfg.CORS.AllowedOrigins)

	worker := service.NewQueueWorker(docRepo, ingestSvc, service.QueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		MaxRetries:   cfg.Queue.MaxRetries,
		Concurrency:  cfg.Queue.Concurrency,
	})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		wg.Wait()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	wg.Wait()
	log.Info().Msg("server stopped")
	return nil
}
