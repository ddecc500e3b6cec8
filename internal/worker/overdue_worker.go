package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/jobcard-service/internal/events"
	"github.com/spec-kit/jobcard-service/internal/repository"
)

// OverdueScanner periodically publishes an event for every job card whose due
// date has passed while it is still open. Deduplication across sweeps is left
// to the event consumers.
type OverdueScanner struct {
	cards      repository.JobCardRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	interval   time.Duration
	batchSize  int
}

// NewOverdueScanner builds the scanner.
func NewOverdueScanner(cards repository.JobCardRepository, dispatcher events.Dispatcher, logger *zap.Logger, interval time.Duration, batchSize int) *OverdueScanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OverdueScanner{
		cards:      cards,
		dispatcher: dispatcher,
		logger:     logger,
		interval:   interval,
		batchSize:  batchSize,
	}
}

// Start runs the scan loop in a goroutine until ctx is cancelled.
func (w *OverdueScanner) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()
}

func (w *OverdueScanner) runOnce(ctx context.Context) {
	cards, err := w.cards.ListOverdue(ctx, time.Now(), w.batchSize)
	if err != nil {
		w.logger.Error("overdue scan failed", zap.Error(err))
		return
	}
	for i := range cards {
		card := &cards[i]
		payload := events.JobCardOverduePayload{
			Reference: card.Reference,
			Status:    card.Status,
		}
		if card.DueAt != nil {
			payload.DueAt = *card.DueAt
		}
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventJobCardOverdue,
			JobCardID: card.ID,
			Timestamp: time.Now(),
			Payload:   payload,
		}
		_ = w.dispatcher.Publish(ctx, event)
	}
	if len(cards) > 0 {
		w.logger.Info("overdue scan published events", zap.Int("job_cards", len(cards)))
	}
}
