package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"estateqa/internal/config"
	"estateqa/internal/corpus"
	"estateqa/internal/domain"
	"estateqa/internal/embedding/openai"
	"estateqa/internal/retriever"
	"estateqa/internal/service"
	"estateqa/internal/synthesizer"
	"estateqa/internal/tui"
	"estateqa/internal/vecindex"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/estateqa/config.yaml if not provided)")
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

	// The index and document store are loaded once here and shared
	// read-only by every query for the process lifetime.
	var index domain.Searcher
	var store domain.DocumentStore
	switch cfg.Index.Type {
	case "sqlite", "":
		if _, err := os.Stat(cfg.Index.Path); err != nil {
			log.Fatalf("index %s is not readable (run estateqa-index first): %v", cfg.Index.Path, err)
		}
		idx, docs, err := vecindex.Load(context.Background(), cfg.Index.Path, embedder.Name())
		if err != nil {
			log.Fatalf("index load failed: %v", err)
		}
		index = idx
		store = corpus.NewStore(docs)
		log.Printf("loaded index %s: %d listings, model %s, dim %d", cfg.Index.Path, idx.Len(), idx.Model(), idx.Dimension())
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
		if err := remote.Describe(); err != nil {
			log.Fatalf("qdrant collection %s unavailable: %v", cfg.Index.Qdrant.Collection, err)
		}
		if remote.Len() == 0 {
			log.Fatalf("qdrant collection %s is empty (run estateqa-index first)", cfg.Index.Qdrant.Collection)
		}
		records, err := corpus.LoadCSV(cfg.Corpus.CSVPath)
		if err != nil {
			log.Fatalf("failed to read listings: %v", err)
		}
		docs, err := corpus.Build(records)
		if err != nil {
			log.Fatalf("failed to build corpus: %v", err)
		}
		index = remote
		store = corpus.NewStore(docs)
		log.Printf("using qdrant collection %s: %d points, dim %d", cfg.Index.Qdrant.Collection, remote.Len(), remote.Dimension())
	default:
		log.Fatalf("unknown index type: %s", cfg.Index.Type)
	}

	llm, err := lcopenai.New(
		lcopenai.WithModel(cfg.Generation.Model),
		lcopenai.WithToken(os.Getenv(cfg.Generation.APIKeyEnv)),
	)
	if err != nil {
		log.Fatalf("generation backend init failed: %v", err)
	}

	ret := retriever.New(embedder, index, store, cfg.Retrieval.TopK)
	synth := synthesizer.New(llm, cfg.Generation.Model, cfg.GenerationTimeout())
	orchestrator := service.New(ret, synth)

	m := tui.New(orchestrator)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
