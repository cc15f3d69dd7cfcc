package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"moderation/pkg/api"
	"moderation/pkg/metrics"
	"moderation/pkg/moderation"
	"moderation/pkg/sentiment"
	"moderation/pkg/service"
	"moderation/pkg/stream"
)

type Config struct {
	ServiceName    string `toml:"serviceName"`
	VocabularyPath string `toml:"vocabularyPath"`
	MaxTextLength  int    `toml:"maxTextLength"`

	HTTPAddr string `toml:"httpAddr"`
	LogLevel string `toml:"logLevel"`

	KafkaAddr       string `toml:"kafkaAddr"`
	KafkaTopic      string `toml:"kafkaTopic"`
	KafkaBatch      int    `toml:"kafkaBatch"`
	VerdictTopic    string `toml:"verdictTopic"`
	SubmissionTopic string `toml:"submissionTopic"`
	KafkaGroupID    string `toml:"kafkaGroupID"`
	NumWorkers      int    `toml:"numWorkers"`

	SentimentURL         string `toml:"sentimentURL"`
	SentimentTimeoutSec  int    `toml:"sentimentTimeoutSec"`
	RedisURL             string `toml:"redisURL"`
	SentimentCacheTTLSec int    `toml:"sentimentCacheTTLSec"`
	NeutralOnScorerError bool   `toml:"neutralOnScorerError"`
}

func main() {
	var (
		configPath     string
		vocabularyPath string
		httpAddr       string
		logLevel       string
		kafkaAddr      string
		kafkaTopic     string
		kafkaBatch     int
		sentimentURL   string
		redisURL       string
	)

	flag.StringVar(&configPath, "servconf", "cmd/server/config.toml", "Path to TOML config file")
	flag.StringVar(&vocabularyPath, "vocab", "", "Path to JSON vocabulary file, the embedded one is used if empty.")
	flag.StringVar(&httpAddr, "http", "", "HTTP server address in the form 'host:port'.")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.StringVar(&kafkaAddr, "kafka", "", "Kafka server address in the form 'host:port'.")
	flag.StringVar(&kafkaTopic, "topic", "", "Kafka topic for request logs.")
	flag.IntVar(&kafkaBatch, "batch", 0, "Kafka batch size.")
	flag.StringVar(&sentimentURL, "sentiment", "", "Base URL of a remote sentiment service.")
	flag.StringVar(&redisURL, "redis", "", "Redis URL for the sentiment cache.")
	flag.Parse()

	var cfg Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		log.Fatalf("[server] failed to load config file %s: %v", configPath, err)
	}

	// Override config with flags if set
	if vocabularyPath != "" {
		cfg.VocabularyPath = vocabularyPath
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if kafkaAddr != "" {
		cfg.KafkaAddr = kafkaAddr
	}
	if kafkaTopic != "" {
		cfg.KafkaTopic = kafkaTopic
	}
	if kafkaBatch != 0 {
		cfg.KafkaBatch = kafkaBatch
	}
	if sentimentURL != "" {
		cfg.SentimentURL = sentimentURL
	}
	if redisURL != "" {
		cfg.RedisURL = redisURL
	}

	if !strings.Contains(cfg.HTTPAddr, ":") {
		log.Warn("[server] use ':' before port number, e.g. ':8080'")
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lexicon, err := newLexicon(cfg.VocabularyPath)
	if err != nil {
		log.Fatalf("[server] failed to load vocabulary %s: %v", cfg.VocabularyPath, err)
	}

	scorer, err := newScorer(ctx, cfg)
	if err != nil {
		log.Fatalf("[server] failed to configure sentiment scorer: %v", err)
	}

	svc := service.New(
		cfg.ServiceName,
		moderation.New(scorer, lexicon),
		metrics.New(prometheus.DefaultRegisterer),
		cfg.MaxTextLength,
	)

	var (
		logWriter stream.MessageWriter
		publisher stream.VerdictPublisher
		writers   []*kafka.Writer
	)
	if cfg.KafkaAddr != "" && cfg.KafkaTopic != "" {
		w := newTopicWriter(ctx, cfg.KafkaAddr, cfg.KafkaTopic, cfg.KafkaBatch)
		writers = append(writers, w)
		logWriter = w
	} else {
		log.Warnf("[server] kafka was not configured, logs will not be sent to Kafka")
	}
	if cfg.KafkaAddr != "" && cfg.VerdictTopic != "" {
		w := newTopicWriter(ctx, cfg.KafkaAddr, cfg.VerdictTopic, cfg.KafkaBatch)
		writers = append(writers, w)
		publisher = stream.NewPublisher(w)
	}

	var wg sync.WaitGroup
	if cfg.KafkaAddr != "" && cfg.SubmissionTopic != "" {
		if publisher == nil {
			log.Fatalf("[server] submissionTopic requires verdictTopic to be set")
		}
		if cfg.KafkaGroupID == "" {
			log.Fatalf("[server] submissionTopic requires kafkaGroupID to be set")
		}
		r := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  []string{cfg.KafkaAddr},
			Topic:    cfg.SubmissionTopic,
			GroupID:  cfg.KafkaGroupID,
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		defer r.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			stream.NewWorker(r, svc, publisher, cfg.NumWorkers).Run(ctx)
		}()
	}

	api, err := api.New(cfg.ServiceName, svc, publisher, logWriter)
	if err != nil {
		log.Fatalf("[server] failed to create API: %v", err)
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Infof("[server] starting on port %v", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[server] failed to start: %v", err)
			return
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[server] HTTP server shutdown error: %v", err)
	} else {
		log.Info("[server] HTTP server shut down gracefully")
	}

	cancel()
	wg.Wait()
	for _, w := range writers {
		if err := w.Close(); err != nil {
			log.Errorf("[server] failed to close Kafka writer for %s: %v", w.Topic, err)
		}
	}
}

func newLexicon(path string) (*moderation.Lexicon, error) {
	if path == "" {
		return moderation.DefaultLexicon()
	}

	vocabulary, err := moderation.LoadVocabulary(path)
	if err != nil {
		return nil, err
	}
	return moderation.NewLexicon(vocabulary)
}

// newScorer picks the remote service when configured, the built-in lexicon
// otherwise, and layers the Redis cache and the neutral fallback on top.
func newScorer(ctx context.Context, cfg Config) (sentiment.Scorer, error) {
	var scorer sentiment.Scorer
	if cfg.SentimentURL != "" {
		remote, err := sentiment.NewRemote(cfg.SentimentURL, time.Duration(cfg.SentimentTimeoutSec)*time.Second)
		if err != nil {
			return nil, err
		}
		scorer = remote
		log.Infof("[server] using remote sentiment service %s", cfg.SentimentURL)
	} else {
		lexicon, err := sentiment.NewLexicon()
		if err != nil {
			return nil, err
		}
		scorer = lexicon
	}

	if cfg.RedisURL != "" {
		rdb, err := sentiment.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warnf("[server] sentiment cache disabled: %v", err)
		} else {
			scorer = sentiment.NewCached(scorer, rdb, time.Duration(cfg.SentimentCacheTTLSec)*time.Second)
		}
	}

	if cfg.NeutralOnScorerError {
		scorer = sentiment.NewNeutralOnError(scorer)
	}
	return scorer, nil
}

func newTopicWriter(ctx context.Context, addr, topic string, batch int) *kafka.Writer {
	w := stream.NewWriter(addr, topic, batch)
	if err := stream.CreateTopic(ctx, addr, topic); err != nil {
		log.Warnf("[server] failed to create Kafka topic %s: %v", topic, err)
	}
	return w
}
