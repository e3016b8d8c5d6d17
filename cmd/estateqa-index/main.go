package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"estateqa/internal/config"
	"estateqa/internal/corpus"
	"estateqa/internal/embedding/openai"
	"estateqa/internal/vecindex"
)

// estateqa-index is the offline corpus/index builder. It is the single
// writer: serving processes keep using the previous index file until a
// fully built replacement is installed.
func main() {
	_ = godotenv.Load()

	var cfgPath, csvPath, outPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/estateqa/config.yaml if not provided)")
	flag.StringVar(&csvPath, "csv", "", "Listings CSV path (overrides config)")
	flag.StringVar(&outPath, "out", "", "Index output path (overrides config)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if csvPath == "" {
		csvPath = cfg.Corpus.CSVPath
	}
	if outPath == "" {
		outPath = cfg.Index.Path
	}

	records, err := corpus.LoadCSV(csvPath)
	if err != nil {
		log.Fatalf("failed to read listings: %v", err)
	}
	docs, err := corpus.Build(records)
	if err != nil {
		log.Fatalf("failed to build corpus: %v", err)
	}
	log.Printf("built %d documents from %s", len(docs), csvPath)

	embedder, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   cfg.EmbedderTimeout(),
		BatchSize: cfg.Embedder.BatchSize,
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	ctx := context.Background()
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	start := time.Now()
	vecs, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		log.Fatalf("embedding corpus failed: %v", err)
	}
	log.Printf("embedded %d documents with %s (dim %d) in %s", len(vecs), embedder.Name(), embedder.Dimension(), time.Since(start).Round(time.Millisecond))

	entries := make([]vecindex.Entry, len(docs))
	for i := range docs {
		entries[i] = vecindex.Entry{ID: docs[i].ID, Vector: vecs[i]}
	}
	idx, err := vecindex.Build(embedder.Name(), entries)
	if err != nil {
		log.Fatalf("index build failed: %v", err)
	}

	switch cfg.Index.Type {
	case "sqlite", "":
		if err := vecindex.Save(ctx, outPath, idx, docs); err != nil {
			log.Fatalf("index save failed: %v", err)
		}
		log.Printf("index written to %s", outPath)
	case "qdrant":
		if cfg.Index.Qdrant == nil {
			log.Fatalf("qdrant index config missing")
		}
		remote := vecindex.NewRemote(vecindex.RemoteConfig{
			URL:        cfg.Index.Qdrant.URL,
			APIKey:     cfg.Index.Qdrant.APIKey,
			Collection: cfg.Index.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Index.Qdrant.TimeoutSecs) * time.Second,
		})
		if err := remote.Init(embedder.Dimension()); err != nil {
			log.Fatalf("qdrant init failed: %v", err)
		}
		if err := remote.Upsert(entries, docs); err != nil {
			log.Fatalf("qdrant upsert failed: %v", err)
		}
		log.Printf("indexed %d listings into qdrant collection %s", len(entries), cfg.Index.Qdrant.Collection)
	default:
		log.Fatalf("unknown index type: %s", cfg.Index.Type)
	}
}
