package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"moderation/pkg/archive"
)

type Config struct {
	LogLevel     string   `toml:"logLevel"`
	KafkaBrokers []string `toml:"kafkaBrokers"`
	KafkaGroupID string   `toml:"kafkaGroupID"`

	RequestLogTopic string `toml:"requestLogTopic"`
	VerdictTopic    string `toml:"verdictTopic"`

	ElasticSearchNodes []string `toml:"elasticSearchNodes"`
	RequestLogIndex    string   `toml:"requestLogIndex"`
	VerdictIndex       string   `toml:"verdictIndex"`

	NumWorkers int `toml:"numWorkers"`
}

func main() {
	var (
		configPath string
		logLevel   string
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("[archiver] shutting down gracefully...")
		cancel()
	}()

	flag.StringVar(&configPath, "config", "cmd/archiver/config.toml", "Path to TOML config file")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.Parse()

	var cfg Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		log.Fatalf("[archiver] failed to load config file %s: %v", configPath, err)
	}

	// Override config with flags if set
	if logLevel != "" {
		cfg.LogLevel = logLevel
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

	if cfg.KafkaGroupID == "" {
		log.Fatalf("[archiver] kafkaGroupID must be set")
	}

	indexer, err := archive.NewESIndexer(elasticsearch.Config{Addresses: cfg.ElasticSearchNodes})
	if err != nil {
		log.Fatalf("[archiver] error creating the client: %s", err)
	}

	archivers := []struct {
		name     string
		topic    string
		index    string
		document archive.DocumentFunc
	}{
		{name: "archiver.requests", topic: cfg.RequestLogTopic, index: cfg.RequestLogIndex, document: archive.RequestLogDocument},
		{name: "archiver.verdicts", topic: cfg.VerdictTopic, index: cfg.VerdictIndex, document: archive.VerdictDocument},
	}

	var wg sync.WaitGroup
	for _, a := range archivers {
		if a.topic == "" || a.index == "" {
			log.Warnf("[archiver] %s is not configured, skipping", a.name)
			continue
		}

		r := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    a.topic,
			GroupID:  cfg.KafkaGroupID,
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		defer r.Close()

		wg.Add(1)
		go func(a *archive.Archiver) {
			defer wg.Done()
			a.Run(ctx)
		}(archive.New(a.name, r, indexer, a.index, a.document, cfg.NumWorkers))
	}

	wg.Wait()
}
