package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"policy-rag/internal/config"
	"policy-rag/internal/db"
	"policy-rag/internal/embedding"
	"policy-rag/internal/helper"
	"policy-rag/internal/llmservice"
	"policy-rag/internal/rag"
	"policy-rag/internal/server"
	"policy-rag/internal/session"
	"policy-rag/internal/vectorindex"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	filePath := flag.String("file", "", "Ingest a document into the fixed corpus")
	query := flag.String("query", "", "Run a one-shot claim evaluation")
	dryRun := flag.Bool("dry-run", false, "Parse and print passages without embedding")
	export := flag.Bool("export", false, "Export the persistent corpus collection")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Warn().Err(err).Msg("config file not loaded, using defaults")
		cfg = config.Default()
	}
	if cfg.EmbedLLM.Provider == "openai" && cfg.EmbedLLM.Key == "" {
		// Startup continues; requests will fail until the key is provided.
		log.Warn().Str("env", cfg.EmbedLLM.APIKeyEnv).Msg("API key not set")
	}

	ctx := context.Background()

	switch {
	case *filePath != "":
		ingestFile(ctx, cfg, *filePath, *dryRun)
	case *export:
		exportCorpus(ctx, cfg)
	case *query != "":
		evaluateQuery(ctx, cfg, *query)
	default:
		serve(cfg)
	}
}

func serve(cfg *config.Config) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	model, err := llmservice.NewModel(&cfg.InferLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing model")
	}
	engine := rag.NewEngine(embedder, model, cfg.RAG.TopK)

	corpus := buildCorpusSearcher(context.Background(), cfg, embedder)
	sessions := session.NewInMemoryStore(cfg.RAG.MaxSessions)

	srv := server.New(cfg, engine, embedder, corpus, sessions)
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// buildCorpusSearcher prepares the fixed corpus for /evaluate. A failed
// build is logged and leaves the endpoint answering 500, not the process
// dead.
func buildCorpusSearcher(ctx context.Context, cfg *config.Config, embedder embeddings.Embedder) rag.Searcher {
	if cfg.Database.Enabled {
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			log.Error().Err(err).Msg("Error connecting to database")
			return nil
		}
		bundb := db.NewDB(sqldb, cfg.Database.Debug)
		if err := db.InitDB(ctx, bundb); err != nil {
			log.Error().Err(err).Msg("Error initializing database")
			return nil
		}
		return rag.DBSearcher{DB: bundb}
	}

	if cfg.RAG.CorpusDir == "" {
		log.Info().Msg("no fixed corpus configured")
		return nil
	}
	index, err := rag.LoadCorpusDir(ctx, embedder, &cfg.RAG)
	if err != nil {
		log.Error().Err(err).Msg("Error building corpus index")
		return nil
	}
	log.Info().Int("passages", index.Count()).Msg("fixed corpus ready")
	return rag.IndexSearcher{Index: index}
}

func ingestFile(ctx context.Context, cfg *config.Config, filePath string, dryRun bool) {
	passages, err := rag.ExtractPassages(filePath, &cfg.RAG)
	if err != nil {
		log.Fatal().Err(err).Msg("Error parsing document")
	}
	log.Info().Int("passages", len(passages)).Msg("parsed document")

	if dryRun {
		helper.PrettyPrint(passages)
		return
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	batch, err := embedding.EmbedPassages(ctx, embedder, passages)
	if err != nil {
		log.Fatal().Err(err).Msg("Error generating embedding")
	}
	if len(batch) == 0 {
		log.Warn().Msg("document produced no passages")
		return
	}

	if cfg.Database.Enabled {
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to database")
		}
		bundb := db.NewDB(sqldb, cfg.Database.Debug)
		defer bundb.Close()
		if err := db.InitDB(ctx, bundb); err != nil {
			log.Fatal().Err(err).Msg("Error initializing database")
		}
		if err := db.StoreDocuments(ctx, bundb, batch); err != nil {
			log.Fatal().Err(err).Msg("Error storing document")
		}
		return
	}

	if cfg.RAG.IndexPath == "" {
		log.Fatal().Msg("Set rag.index_path or database.enabled to keep ingested documents")
	}
	index, err := vectorindex.NewPersistentIndex(cfg.RAG.IndexPath, "corpus", cfg.RAG.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening corpus index")
	}
	if err := index.Add(ctx, batch); err != nil {
		log.Fatal().Err(err).Msg("Error adding documents to corpus index")
	}
	log.Info().Int("passages", index.Count()).Msg("corpus index updated")
}

func evaluateQuery(ctx context.Context, cfg *config.Config, query string) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	model, err := llmservice.NewModel(&cfg.InferLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing model")
	}
	engine := rag.NewEngine(embedder, model, cfg.RAG.TopK)

	corpus := buildCorpusSearcher(ctx, cfg, embedder)
	if corpus == nil {
		log.Fatal().Msg("No corpus available; configure rag.corpus_dir or the database")
	}

	eval, err := engine.Evaluate(ctx, corpus, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	fmt.Printf("Query: %s\n\n", query)
	helper.PrettyPrint(eval)
}

func exportCorpus(ctx context.Context, cfg *config.Config) {
	if cfg.RAG.IndexPath == "" {
		log.Fatal().Msg("rag.index_path is required for export")
	}
	index, err := vectorindex.NewPersistentIndex(cfg.RAG.IndexPath, "corpus", cfg.RAG.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening corpus index")
	}
	if err := index.Export(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error exporting collection")
	}
	log.Info().Msg("corpus exported")
}
