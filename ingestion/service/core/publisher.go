package service

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"logshelf/internal/messaging/producer"
	"logshelf/internal/models"
)

// Publisher batches committed records and hands them to the producer in the
// background, so a slow broker never holds up an ingestion pass.
type Publisher struct {
	batchSize      int
	batchTimeout   time.Duration
	publishTimeout time.Duration
	logger         *log.Logger
	producer       producer.Producer

	// Buffers
	buffer      []models.LogRecord
	bufferMutex sync.Mutex
	flushChan   chan []models.LogRecord

	published atomic.Int64
	failed    atomic.Int64

	// The timer stops before the publisher drains, so no flush lands after the drain
	timerStop chan struct{}
	timerDone chan struct{}

	// Context for graceful shutdown
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// PublisherStats counts records handed to the producer since startup.
type PublisherStats struct {
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
	Pending   int   `json:"pending"`
}

// NewPublisher creates a publisher and starts its background goroutines
func NewPublisher(batchSize int, batchTimeout time.Duration, flushChannelBuffer int,
	p producer.Producer, logger *log.Logger) *Publisher {

	if batchSize <= 0 {
		batchSize = 100
	}
	if batchTimeout <= 0 {
		batchTimeout = 100 * time.Millisecond
	}
	if flushChannelBuffer <= 0 {
		flushChannelBuffer = 16
	}

	ctx, cancel := context.WithCancel(context.Background())

	bp := &Publisher{
		batchSize:      batchSize,
		batchTimeout:   batchTimeout,
		publishTimeout: 15 * time.Second,
		logger:         logger,
		producer:       p,
		buffer:         make([]models.LogRecord, 0, batchSize),
		flushChan:      make(chan []models.LogRecord, flushChannelBuffer),
		timerStop:      make(chan struct{}),
		timerDone:      make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
	}

	bp.wg.Add(1)
	go bp.batchTimer()
	go bp.batchPublisher()

	return bp
}

// Submit queues records for publishing, preserving their order
func (bp *Publisher) Submit(records []models.LogRecord) {
	if len(records) == 0 {
		return
	}

	bp.bufferMutex.Lock()
	bp.buffer = append(bp.buffer, records...)
	shouldFlush := len(bp.buffer) >= bp.batchSize
	bp.bufferMutex.Unlock()

	if shouldFlush {
		bp.flushIfNeeded()
	}
}

// Stats returns the publish counters
func (bp *Publisher) Stats() PublisherStats {
	bp.bufferMutex.Lock()
	pending := len(bp.buffer)
	bp.bufferMutex.Unlock()

	return PublisherStats{
		Published: bp.published.Load(),
		Failed:    bp.failed.Load(),
		Pending:   pending,
	}
}

// batchTimer handles periodic flushing
func (bp *Publisher) batchTimer() {
	defer close(bp.timerDone)

	ticker := time.NewTicker(bp.batchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bp.flushIfNeeded()
		case <-bp.timerStop:
			return
		}
	}
}

// batchPublisher sends flushed batches to the producer one at a time
func (bp *Publisher) batchPublisher() {
	defer bp.wg.Done()

	for {
		select {
		case batch := <-bp.flushChan:
			bp.publishBatch(batch)
		case <-bp.ctx.Done():
			// Drain queued batches first, then whatever is left in the buffer
		drain:
			for {
				select {
				case batch := <-bp.flushChan:
					bp.publishBatch(batch)
				default:
					break drain
				}
			}

			bp.bufferMutex.Lock()
			remaining := bp.buffer
			bp.buffer = nil
			bp.bufferMutex.Unlock()

			bp.publishBatch(remaining)
			return
		}
	}
}

// flushIfNeeded moves the buffer onto the flush channel if it has entries
func (bp *Publisher) flushIfNeeded() {
	bp.bufferMutex.Lock()
	defer bp.bufferMutex.Unlock()

	if len(bp.buffer) == 0 {
		return
	}

	batch := make([]models.LogRecord, len(bp.buffer))
	copy(batch, bp.buffer)

	select {
	case bp.flushChan <- batch:
		bp.buffer = bp.buffer[:0]
	default:
		// Flush channel full, keep buffering until the next tick
		bp.logger.Printf("Publisher: flush channel full, %d records wait for next tick", len(batch))
	}
}

// publishBatch handles the actual producer call
func (bp *Publisher) publishBatch(batch []models.LogRecord) {
	if len(batch) == 0 {
		return
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), bp.publishTimeout)
	defer cancel()

	if err := bp.producer.PublishBatch(ctx, batch); err != nil {
		bp.failed.Add(int64(len(batch)))
		bp.logger.Printf("Publisher: batch of %d records failed: %v", len(batch), err)
		return
	}

	bp.published.Add(int64(len(batch)))
	bp.logger.Printf("Publisher: batch published: %d records in %v", len(batch), time.Since(start))
}

// Close publishes everything still queued and stops the background goroutines
func (bp *Publisher) Close() {
	bp.closeOnce.Do(func() {
		close(bp.timerStop)
		<-bp.timerDone
		bp.cancel()
	})
	bp.wg.Wait()
}
