package event

import (
	"context"
	"time"

	"billbridge/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// Worker drains the webhook event log in the background. One failed
// event never stops the batch.
type Worker struct {
	eventRepo repositories.EventRepository
	processor *Processor
	pollEvery time.Duration
	batchSize int
}

// NewWorker creates an event processing worker.
func NewWorker(eventRepo repositories.EventRepository, processor *Processor, pollEvery time.Duration, batchSize int) *Worker {
	if pollEvery == 0 {
		pollEvery = 2 * time.Second
	}
	if batchSize == 0 {
		batchSize = 50
	}

	return &Worker{
		eventRepo: eventRepo,
		processor: processor,
		pollEvery: pollEvery,
		batchSize: batchSize,
	}
}

// Run processes events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	log.Info().
		Dur("poll_every", w.pollEvery).
		Int("batch_size", w.batchSize).
		Msg("webhook event worker started")

	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("webhook event worker stopping")
			return
		case <-ticker.C:
			if err := w.processNextBatch(ctx); err != nil {
				log.Error().Err(err).Msg("error processing webhook event batch")
			}
		}
	}
}

func (w *Worker) processNextBatch(ctx context.Context) error {
	events, err := w.eventRepo.FindUnprocessed(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	log.Debug().Int("count", len(events)).Msg("processing webhook event batch")

	for _, e := range events {
		start := time.Now()
		if err := w.processor.ProcessEvent(ctx, e); err != nil {
			log.Error().
				Err(err).
				Int64("event_id", e.ID).
				Str("provider", e.Provider).
				Str("event_type", e.EventType).
				Msg("failed to process webhook event")
			continue
		}

		log.Info().
			Int64("event_id", e.ID).
			Str("provider", e.Provider).
			Str("event_type", e.EventType).
			Dur("duration", time.Since(start)).
			Msg("webhook event processed")
	}
	return nil
}

// ReprocessEvent queues an already-processed event and runs it again.
// Manual recovery hook.
func (w *Worker) ReprocessEvent(ctx context.Context, eventID int64) error {
	if err := w.eventRepo.MarkForReprocessing(ctx, eventID); err != nil {
		return err
	}

	e, err := w.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return err
	}
	return w.processor.ProcessEvent(ctx, e)
}
