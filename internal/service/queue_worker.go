package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"docintake/internal/domain"
	"docintake/internal/port"
)

// QueueConfig holds settings for the ingest queue worker.
type QueueConfig struct {
	PollInterval time.Duration
	MaxRetries   int
	Concurrency  int
	// ProcessTimeout bounds one document's recognition and analysis.
	ProcessTimeout time.Duration
}

// QueueWorker polls for queued documents and dispatches them for processing.
type QueueWorker struct {
	docRepo   port.DocumentRepository
	processor DocumentProcessor
	cfg       QueueConfig
	wg        sync.WaitGroup
}

// NewQueueWorker creates a new QueueWorker.
func NewQueueWorker(docRepo port.DocumentRepository, processor DocumentProcessor, cfg QueueConfig) *QueueWorker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 5 * time.Minute
	}
	return &QueueWorker{
		docRepo:   docRepo,
		processor: processor,
		cfg:       cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight documents have finished.
func (w *QueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Info().Dur("poll", w.cfg.PollInterval).Int("concurrency", w.cfg.Concurrency).Int("max_retries", w.cfg.MaxRetries).
		Msg("queueWorker: started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("queueWorker: shutting down, waiting for in-flight documents...")
			w.wg.Wait()
			log.Info().Msg("queueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			docs, err := w.docRepo.ClaimQueued(ctx, w.cfg.MaxRetries, available)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Error().Err(err).Msg("queueWorker: ClaimQueued error")
				continue
			}

			for i := range docs {
				doc := docs[i]

				sem <- struct{}{}
				w.wg.Add(1)
				go func(doc domain.Document) {
					defer w.wg.Done()
					defer func() { <-sem }()

					// In-flight documents finish even during shutdown.
					procCtx, cancel := context.WithTimeout(context.Background(), w.cfg.ProcessTimeout)
					defer cancel()

					log.Info().Str("document_id", doc.ID.String()).Int("attempt", doc.Attempts).
						Msg("queueWorker: dispatching document")
					w.processor.ProcessDocument(procCtx, &doc, w.cfg.MaxRetries)
				}(doc)
			}
		}
	}
}
