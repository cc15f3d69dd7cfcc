package stream

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

const (
	// readRetryDelay spaces out fetches while the broker keeps failing.
	readRetryDelay = time.Second
	// handleTimeout bounds a single message once its handler has started.
	handleTimeout = 30 * time.Second
	commitTimeout = 10 * time.Second
)

// Handler processes one message. workerID only identifies the goroutine in logs.
type Handler func(ctx context.Context, msg kafka.Message, workerID int)

// Consume fetches from r and fans messages out to numWorkers goroutines until
// ctx is cancelled. Every fetched message is handled, even after cancellation,
// and its offset is committed only once the handler has returned. Handlers get
// a context that is not cancelled with ctx but expires after handleTimeout.
func Consume(ctx context.Context, r MessageReader, numWorkers int, component string, h Handler) {
	if numWorkers < 1 {
		numWorkers = 1
	}

	jobs := make(chan kafka.Message, numWorkers*5) // buffer is needed to increase throughput
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for workerID := 0; workerID < numWorkers; workerID++ {
		go func(id int) {
			defer wg.Done()
			work(context.WithoutCancel(ctx), r, jobs, component, id, h)
		}(workerID)
	}

	log.Infof("[%s] accepting messages...", component)
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Errorf("[%s] failed to fetch message from Kafka, retrying in %v: %v", component, readRetryDelay, err)
			select {
			case <-ctx.Done():
			case <-time.After(readRetryDelay):
			}
			continue
		}
		log.Debugf("[%s] received message at offset %d", component, msg.Offset)

		jobs <- msg
	}

	close(jobs)
	wg.Wait()
}

// work drains jobs until it is closed. A crash can still skip a message whose
// successor on the same partition was committed first; a cancelled ctx cannot.
func work(ctx context.Context, r MessageReader, jobs <-chan kafka.Message, component string, workerID int, h Handler) {
	for msg := range jobs {
		handleCtx, cancel := context.WithTimeout(ctx, handleTimeout)
		h(handleCtx, msg, workerID)
		cancel()

		commitCtx, cancel := context.WithTimeout(ctx, commitTimeout)
		if err := r.CommitMessages(commitCtx, msg); err != nil {
			log.Errorf("[%s][workerID:%d] failed to commit offset %d: %v", component, workerID, msg.Offset, err)
		}
		cancel()
	}
	log.Infof("[%s][workerID:%d] jobs channel closed, exiting worker", component, workerID)
}
