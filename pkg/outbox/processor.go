package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/mykafka"
)

type Processor struct {
	db        *gorm.DB
	repo      Repository
	publisher mykafka.Publisher
	logger    *slog.Logger
	batchSize int
	interval  time.Duration
}

func NewProcessor(db *gorm.DB, repo Repository, publisher mykafka.Publisher, logger *slog.Logger, batchSize int, interval time.Duration) *Processor {
	if batchSize <= 0 {
		batchSize = 50
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Processor{
		db:        db,
		repo:      repo,
		publisher: publisher,
		logger:    logger.With("component", "outbox"),
		batchSize: batchSize,
		interval:  interval,
	}
}

func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("outbox processor started", "interval", p.interval.String(), "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox processor stopping")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error("outbox batch failed", "error", err)
			}
		}
	}
}

// ProcessBatch relays one batch and returns how many events were published.
func (p *Processor) ProcessBatch(ctx context.Context) (int, error) {
	published := 0
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events, err := p.repo.Unpublished(ctx, tx, p.batchSize)
		if err != nil {
			return fmt.Errorf("load unpublished: %w", err)
		}
		if len(events) == 0 {
			return nil
		}
		p.logger.Debug("processing outbox events", "count", len(events))

		for i := range events {
			ev := &events[i]
			if pubErr := p.publisher.PublishEvent(ctx, ev.Topic, ev.AggregateID, ev.Envelope()); pubErr != nil {
				p.logger.Warn("outbox publish failed",
					"event_id", ev.ID,
					"event_type", ev.EventType,
					"attempts", ev.Attempts+1,
					"error", pubErr,
				)
				if dbErr := p.repo.MarkFailed(ctx, tx, ev.ID, pubErr.Error()); dbErr != nil {
					return fmt.Errorf("mark event %d failed: %w", ev.ID, dbErr)
				}
				continue
			}
			if dbErr := p.repo.MarkPublished(ctx, tx, ev.ID); dbErr != nil {
				return fmt.Errorf("mark event %d published: %w", ev.ID, dbErr)
			}
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}
