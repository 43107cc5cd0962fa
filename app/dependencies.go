package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/harshadeepak1/agentic-rag-system/config"
	"github.com/harshadeepak1/agentic-rag-system/services/agents"
	"github.com/harshadeepak1/agentic-rag-system/services/confidence"
	"github.com/harshadeepak1/agentic-rag-system/services/pipeline"
	"github.com/harshadeepak1/agentic-rag-system/services/providers"
	"github.com/harshadeepak1/agentic-rag-system/services/providers/openai"
	"github.com/harshadeepak1/agentic-rag-system/services/retrieval"
	"github.com/harshadeepak1/agentic-rag-system/services/router"
	"github.com/harshadeepak1/agentic-rag-system/services/store"
	"github.com/harshadeepak1/agentic-rag-system/services/synthesis"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	DB     *sql.DB // nil when the memory store backend is selected

	// Provider adapter (one instance serves embedding and generation)
	Embedder  providers.Embedder
	Generator providers.Generator

	// Context store
	Store store.ContextStore

	// Pipeline stages
	Engine      *retrieval.Engine
	Synthesizer *synthesis.Service
	Estimator   *confidence.Estimator
	Registry    *agents.Registry
	Router      *router.Service
	Pipeline    *pipeline.Service
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initProvider(cfg)

	if err := deps.initStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize context store: %w", err)
	}

	deps.initPipeline(cfg)

	logger.Info("all dependencies initialized",
		zap.String("store_backend", cfg.Store.Backend),
		zap.String("embed_model", cfg.Provider.EmbedModel),
		zap.String("gen_model", cfg.Provider.GenModel))
	return deps, nil
}

// initProvider builds the OpenAI-compatible adapter used for both
// embedding and generation
func (d *Dependencies) initProvider(cfg *config.Config) {
	adapter := openai.NewAdapter(providers.Config{
		APIKey:         cfg.Provider.APIKey,
		BaseURL:        cfg.Provider.BaseURL,
		EmbedModel:     cfg.Provider.EmbedModel,
		GenModel:       cfg.Provider.GenModel,
		EmbedTimeout:   cfg.Provider.EmbedTimeout,
		GenTimeout:     cfg.Provider.GenTimeout,
		MaxBatchSize:   cfg.Provider.MaxBatchSize,
		RetryBaseDelay: cfg.Provider.RetryBaseDelay,
	})
	d.Embedder = adapter
	d.Generator = adapter
}

// initStore selects and initializes the configured context store backend
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		d.Store = store.NewMemoryStore()
		d.Logger.Info("using in-memory context store")
		return nil

	case config.StoreBackendPostgres:
		db, err := sql.Open("postgres", cfg.Store.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(cfg.Store.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Store.MaxIdleConns)

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		pgStore := store.NewPostgresStore(db, d.Logger)
		if err := pgStore.Migrate(ctx, cfg.Store.EmbeddingDim); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		d.DB = db
		d.Store = pgStore
		d.Logger.Info("using postgres context store",
			zap.Int("embedding_dim", cfg.Store.EmbeddingDim))
		return nil

	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// initPipeline wires the retrieval, synthesis, confidence, specialist, and
// routing stages into the pipeline orchestrator
func (d *Dependencies) initPipeline(cfg *config.Config) {
	d.Engine = retrieval.NewEngine(d.Embedder, d.Store, d.Logger)

	synthCfg := synthesis.DefaultConfig()
	synthCfg.RetryBaseDelay = cfg.Provider.RetryBaseDelay
	d.Synthesizer = synthesis.NewService(d.Generator, synthCfg, d.Logger)

	d.Estimator = confidence.NewEstimator(cfg.Retrieval.SparsePenalty)

	opts := retrieval.Options{
		TopK:            cfg.Retrieval.TopK,
		RerankK:         cfg.Retrieval.RerankK,
		MaxContextChars: cfg.Retrieval.MaxContextChars,
		DiversityMargin: cfg.Retrieval.DiversityMargin,
	}

	// No document processor is wired at the gateway; the tabular
	// specialist answers from retrieved chunks alone.
	d.Registry = agents.NewRegistry(d.Engine, d.Synthesizer, d.Estimator, nil, opts, d.Logger)
	d.Router = router.NewService(d.Generator, d.Logger)
	d.Pipeline = pipeline.NewService(d.Router, d.Registry, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
