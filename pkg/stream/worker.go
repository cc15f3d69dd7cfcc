package stream

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"moderation/pkg/models"
	"moderation/pkg/moderation"
)

// Moderator is implemented by *service.Service.
type Moderator interface {
	Moderate(ctx context.Context, r models.Review) (models.VerdictEvent, error)
}

// VerdictPublisher is implemented by *Publisher.
type VerdictPublisher interface {
	Publish(ctx context.Context, e models.VerdictEvent) error
}

// Worker consumes review submissions, moderates them and publishes verdicts.
type Worker struct {
	reader     MessageReader
	moderator  Moderator
	publisher  VerdictPublisher
	numWorkers int
}

func NewWorker(r MessageReader, m Moderator, p VerdictPublisher, numWorkers int) *Worker {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Worker{reader: r, moderator: m, publisher: p, numWorkers: numWorkers}
}

// Run moderates submissions until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	Consume(ctx, w.reader, w.numWorkers, "stream.Worker", w.handle)
}

// handle drops messages it cannot moderate; the reason is logged.
func (w *Worker) handle(ctx context.Context, msg kafka.Message, workerID int) {
	var review models.Review
	if err := json.Unmarshal(msg.Value, &review); err != nil {
		log.Errorf("[stream.Worker][workerID:%d] failed to unmarshal review at offset %d: %v", workerID, msg.Offset, err)
		return
	}

	event, err := w.moderator.Moderate(ctx, review)
	if err != nil {
		if errors.Is(err, moderation.ErrSentiment) {
			log.Errorf("[stream.Worker][workerID:%d] review %s not moderated: %v", workerID, review.ID, err)
		} else {
			log.Warnf("[stream.Worker][workerID:%d] rejected review at offset %d: %v", workerID, msg.Offset, err)
		}
		return
	}

	if err := w.publisher.Publish(ctx, event); err != nil {
		log.Errorf("[stream.Worker][workerID:%d] failed to publish verdict for review %s: %v", workerID, event.ReviewID, err)
		return
	}
	log.Debugf("[stream.Worker][workerID:%d] review %s moderated, approved:%v", workerID, event.ReviewID, event.Verdict.IsApproved)
}
