package consumer

import (
	"context"
	"errors"
	"log"
	"time"

	"logshelf/internal/models"
)

// Follow consumes records and hands each to handle until ctx is cancelled or
// the consumer is closed. A record is acknowledged only after handle succeeds;
// a handle error NACKs the record and stops following. Consume errors are
// logged and retried after retryDelay.
func Follow(ctx context.Context, c Consumer, retryDelay time.Duration, logger *log.Logger, handle func(models.LogRecord) error) (int, error) {
	handled := 0
	for {
		rec, ack, err := c.Consume(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return handled, nil
			}
			logger.Printf("Follow: consume failed, retrying in %v: %v", retryDelay, err)
			select {
			case <-ctx.Done():
				return handled, nil
			case <-time.After(retryDelay):
			}
			continue
		}

		if err := handle(*rec); err != nil {
			ack(false)
			return handled, err
		}
		ack(true)
		handled++
	}
}
