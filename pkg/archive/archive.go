// Package archive copies request logs and verdicts from Kafka into Elasticsearch.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gofrs/uuid"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"moderation/pkg/models"
	"moderation/pkg/stream"
)

var (
	ErrIndex      = errors.New("elasticsearch rejected document")
	ErrDocumentID = errors.New("document has no id")
)

// Document is a message body and the ID it is stored under. Re-indexing a
// document with the same ID overwrites it, so redelivered messages are harmless.
type Document struct {
	ID   string
	Body []byte
}

// DocumentFunc derives the document to store for a Kafka message.
type DocumentFunc func(msg kafka.Message) (Document, error)

// RequestLogDocument stores a models.LogEntry under service name + request ID.
func RequestLogDocument(msg kafka.Message) (Document, error) {
	var entry models.LogEntry
	if err := json.Unmarshal(msg.Value, &entry); err != nil {
		return Document{}, fmt.Errorf("failed to unmarshal log entry: %w", err)
	}
	if entry.RequestID == "" {
		return Document{}, fmt.Errorf("%w: log entry without request id", ErrDocumentID)
	}

	return Document{ID: entry.Service + entry.RequestID, Body: msg.Value}, nil
}

// VerdictDocument stores a models.VerdictEvent under its review ID.
func VerdictDocument(msg kafka.Message) (Document, error) {
	var event models.VerdictEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return Document{}, fmt.Errorf("failed to unmarshal verdict event: %w", err)
	}
	if event.ReviewID == uuid.Nil {
		return Document{}, fmt.Errorf("%w: verdict without review id", ErrDocumentID)
	}

	return Document{ID: event.ReviewID.String(), Body: msg.Value}, nil
}

// Indexer is implemented by *ESIndexer.
type Indexer interface {
	Index(ctx context.Context, index string, doc Document) error
}

type ESIndexer struct {
	es *elasticsearch.Client
}

func NewESIndexer(cfg elasticsearch.Config) (*ESIndexer, error) {
	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ESIndexer{es: es}, nil
}

func (i *ESIndexer) Index(ctx context.Context, index string, doc Document) error {
	res, err := i.es.Index(
		index,
		bytes.NewReader(doc.Body),
		i.es.Index.WithDocumentID(doc.ID),
		i.es.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndex, res.Status())
	}
	return nil
}

// Archiver indexes every message of one topic into one index.
type Archiver struct {
	name       string
	reader     stream.MessageReader
	indexer    Indexer
	index      string
	document   DocumentFunc
	numWorkers int
}

func New(name string, r stream.MessageReader, indexer Indexer, index string, document DocumentFunc, numWorkers int) *Archiver {
	return &Archiver{
		name:       name,
		reader:     r,
		indexer:    indexer,
		index:      index,
		document:   document,
		numWorkers: numWorkers,
	}
}

// Run archives messages until ctx is cancelled.
func (a *Archiver) Run(ctx context.Context) {
	stream.Consume(ctx, a.reader, a.numWorkers, a.name, a.handle)
}

// handle logs and skips messages that cannot be archived.
func (a *Archiver) handle(ctx context.Context, msg kafka.Message, workerID int) {
	doc, err := a.document(msg)
	if err != nil {
		log.Errorf("[%s][workerID:%d] skipping message at offset %d: %v", a.name, workerID, msg.Offset, err)
		return
	}

	if err := a.indexer.Index(ctx, a.index, doc); err != nil {
		log.Errorf("[%s][workerID:%d] failed to index document %s: %v", a.name, workerID, doc.ID, err)
		return
	}
	log.Infof("[%s][workerID:%d][%s] document indexed", a.name, workerID, shorten(doc.ID))
}

func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
