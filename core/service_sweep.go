package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// RunSweep claims every due delivery record and retries it through a bounded
// worker pool. One record blowing up never stops the rest of the batch; the
// stats report what the sweep actually accomplished.
func (s *Service) RunSweep(ctx context.Context) SweepStats {
	startedAt := time.Now()
	stats, err := s.runSweep(ctx)
	s.observeOperation(ctx, startedAt, "sweep", err, map[string]any{
		"claimed":   stats.Claimed,
		"delivered": stats.Delivered,
		"retried":   stats.Retried,
		"failed":    stats.Failed,
		"abandoned": stats.Abandoned,
	})
	return stats
}

func (s *Service) runSweep(ctx context.Context) (SweepStats, error) {
	if s == nil || s.deliveryStore == nil || s.webhookStore == nil {
		return SweepStats{}, fmt.Errorf("core: stores are not configured")
	}

	batchSize := s.config.Sweep.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultConfig().Sweep.BatchSize
	}
	workerCount := s.config.Sweep.WorkerCount
	if workerCount <= 0 {
		workerCount = DefaultConfig().Sweep.WorkerCount
	}

	records, err := s.deliveryStore.ClaimDue(ctx, s.clock(), batchSize)
	if err != nil {
		return SweepStats{}, err
	}

	stats := SweepStats{Claimed: len(records)}
	if len(records) == 0 {
		return stats, nil
	}
	if workerCount > len(records) {
		workerCount = len(records)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	work := make(chan DeliveryRecord)

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range work {
				outcome := s.sweepOne(ctx, record)
				mu.Lock()
				switch outcome {
				case sweepDelivered:
					stats.Delivered++
				case sweepRetried:
					stats.Retried++
				case sweepFailed:
					stats.Failed++
				case sweepAbandoned:
					stats.Abandoned++
				}
				mu.Unlock()
			}
		}()
	}

	for _, record := range records {
		work <- record
	}
	close(work)
	wg.Wait()

	return stats, nil
}

type sweepOutcome int

const (
	sweepSkipped sweepOutcome = iota
	sweepDelivered
	sweepRetried
	sweepFailed
	sweepAbandoned
)

// sweepOne re-resolves the webhook and retries a single claimed record.
// A record whose webhook is gone is abandoned without an HTTP attempt.
func (s *Service) sweepOne(ctx context.Context, record DeliveryRecord) sweepOutcome {
	webhook, err := s.resolveWebhook(ctx, record)
	if err != nil {
		if errors.Is(err, ErrWebhookNotFound) {
			return s.abandonRecord(ctx, record, "webhook no longer exists")
		}
		s.logError(ctx, "sweep webhook resolution failed", map[string]any{
			"delivery_id": record.ID,
			"error":       err.Error(),
		})
		return sweepSkipped
	}

	// A failed settle leaves the record claimed in retrying; once the claim
	// lease lapses a later sweep reclaims it.
	updated, err := s.attemptDelivery(ctx, webhook, record)
	if err != nil {
		s.logError(ctx, "sweep delivery attempt failed", map[string]any{
			"delivery_id": record.ID,
			"webhook_id":  webhook.ID,
			"error":       err.Error(),
		})
		return sweepSkipped
	}

	switch updated.Status {
	case DeliveryStatusSuccess:
		return sweepDelivered
	case DeliveryStatusRetryPending:
		return sweepRetried
	case DeliveryStatusFailed:
		return sweepFailed
	}
	return sweepSkipped
}

func (s *Service) resolveWebhook(ctx context.Context, record DeliveryRecord) (Webhook, error) {
	if record.WebhookID == nil || strings.TrimSpace(*record.WebhookID) == "" {
		return Webhook{}, ErrWebhookNotFound
	}
	webhook, err := s.webhookStore.Get(ctx, strings.TrimSpace(*record.WebhookID))
	if err != nil {
		return Webhook{}, err
	}
	if webhook.DeletedAt != nil {
		return Webhook{}, ErrWebhookNotFound
	}
	return webhook, nil
}

func (s *Service) abandonRecord(ctx context.Context, record DeliveryRecord, reason string) sweepOutcome {
	claimedAs := record.Status
	if err := record.MarkAbandoned(reason, s.clock()); err != nil {
		s.logError(ctx, "sweep abandon failed", map[string]any{
			"delivery_id": record.ID,
			"error":       err.Error(),
		})
		return sweepSkipped
	}
	if _, err := s.deliveryStore.Update(ctx, record, claimedAs); err != nil {
		s.logError(ctx, "sweep abandon update failed", map[string]any{
			"delivery_id": record.ID,
			"error":       err.Error(),
		})
		return sweepSkipped
	}
	s.recordCounter(ctx, "webhooks.delivery_abandoned.total", 1, map[string]string{
		"event_type": string(record.EventType),
	})
	return sweepAbandoned
}
