package queue_publisher

import (
	"context"
	"time"

	"github.com/iliyamo/hall-pass/internal/model"
	"github.com/iliyamo/hall-pass/internal/policy"
	q "github.com/iliyamo/hall-pass/internal/queue"
)

// BrokerEvents forwards pass lifecycle notifications to RabbitMQ. Each
// publish runs in its own goroutine with a detached context so a slow
// or unavailable broker never delays the HTTP response; failures are
// logged inside the publisher and otherwise dropped.
type BrokerEvents struct{}

func (BrokerEvents) PassCreated(_ context.Context, p model.Pass) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = PublishPassCreated(ctx, q.PassCreatedEvent{
			PassID:    p.ID,
			UserID:    p.UserID,
			Location:  p.Location,
			Duration:  p.Duration,
			ExpiresAt: p.ExpiresAt().UTC().Format(time.RFC3339),
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}()
}

func (BrokerEvents) PassDenied(_ context.Context, userID uint64, location string, d policy.Decision) {
	details := make([]q.DeniedDetail, 0, len(d.Violations))
	for _, v := range d.Violations {
		details = append(details, q.DeniedDetail{
			Code:        v.Code,
			Restriction: v.Restriction,
			Message:     v.Message,
		})
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = PublishPassDenied(ctx, q.PassDeniedEvent{
			UserID:     userID,
			Location:   location,
			Reason:     d.Reason(),
			Violations: details,
			DeniedAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}()
}
