package events

import (
	"context"
	"sync"
	"time"

	"github.com/eaglebank/personnel-service/shared/contextutil"
	"go.uber.org/zap"
)

const defaultPublishTimeout = 5 * time.Second

// BestEffort publishes events in the background. Publish failures are logged
// and dropped; they never reach the caller of Emit.
type BestEffort struct {
	publisher Publisher
	logger    *zap.Logger
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewBestEffort(publisher Publisher, logger *zap.Logger, timeout time.Duration) *BestEffort {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &BestEffort{
		publisher: publisher,
		logger:    logger.Named("events.publisher"),
		timeout:   timeout,
	}
}

// Emit publishes payload on a detached goroutine. The publish keeps ctx's
// values but not its cancellation, so it outlives the request that caused it.
func (b *BestEffort) Emit(ctx context.Context, topic, key string, payload any) {
	ctx = context.WithoutCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("publish event panicked",
					zap.String("topic", topic),
					zap.String("key", key),
					zap.Any("panic", r),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()

		if err := b.publisher.Publish(ctx, topic, key, payload); err != nil {
			b.logger.Error("publish event failed",
				zap.String("request_id", contextutil.GetRequestID(ctx)),
				zap.String("topic", topic),
				zap.String("key", key),
				zap.Error(err),
			)
			return
		}
		b.logger.Debug("event published",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.String("topic", topic),
			zap.String("key", key),
		)
	}()
}

// Wait blocks until every emitted event has been published or dropped.
func (b *BestEffort) Wait() {
	b.wg.Wait()
}
