package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jonathan/buyside/internal/assets"
	"github.com/jonathan/buyside/internal/cache"
	"github.com/jonathan/buyside/internal/campaign"
	"github.com/jonathan/buyside/internal/config"
	"github.com/jonathan/buyside/internal/db"
	"github.com/jonathan/buyside/internal/enrichment"
	"github.com/jonathan/buyside/internal/llm"
	"github.com/jonathan/buyside/internal/logging"
	"github.com/jonathan/buyside/internal/pipeline"
	"github.com/jonathan/buyside/internal/telemetry"
)

// app holds the collaborators shared by every subcommand.
type app struct {
	logger    *zap.Logger
	database  *db.DB
	cache     *cache.Store
	llm       llm.Client
	campaigns *campaign.Repository
	pipeline  *pipeline.Orchestrator
	telemetry func(context.Context) error
}

// newApp wires the runtime from cfg. Missing remote collaborators only produce
// warnings: the affected operations fall back or fail when they are used.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	log = logging.OrNop(log)
	a := &app{logger: log}

	shutdown, err := telemetry.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}
	a.telemetry = shutdown

	var store campaign.RecordStore
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	switch {
	case errors.Is(err, db.ErrNotConfigured):
		log.Warn("record store not configured")
	case err != nil:
		log.Warn("record store unavailable", zap.Error(err))
	default:
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			a.Close(ctx)
			return nil, err
		}
		a.database = database
		store = database
	}

	var local campaign.Cache
	cacheStore, err := cache.Open(cfg.CachePath, log)
	if err != nil {
		log.Warn("campaign cache unavailable", zap.String("path", cfg.CachePath), zap.Error(err))
	} else {
		a.cache = cacheStore
		local = cacheStore
	}

	a.campaigns = campaign.NewRepository(ctx, store, local, campaign.WithLogger(log))

	tier := llm.ModelTier(cfg.ModelTier)
	if tier == "" {
		tier = llm.TierStandard
	}

	if cfg.APIKey != "" {
		llmConfig := llm.DefaultConfig()
		if cfg.Model != "" {
			llmConfig = llmConfig.WithModel(tier, cfg.Model)
		}
		client, err := llm.NewClient(ctx, llmConfig, cfg.APIKey)
		if err != nil {
			log.Warn("AI service unavailable; enrichment will use fallbacks", zap.Error(err))
		} else {
			a.llm = client
		}
	}

	enricher := enrichment.New(a.llm,
		enrichment.WithBrand(cfg.BrandName),
		enrichment.WithTier(tier),
		enrichment.WithLogger(log.Named("enrichment")))

	uploader := assets.NewStore(bucketOrNil(cfg),
		assets.WithBucketName(cfg.AssetBucket),
		assets.WithLogger(log.Named("assets")))

	a.pipeline = pipeline.New(enricher, uploader, a.campaigns,
		pipeline.WithSequential(cfg.SequentialEnrichment),
		pipeline.WithEnrichmentTimeout(cfg.EnrichmentTimeout),
		pipeline.WithLogger(log.Named("pipeline")))

	return a, nil
}

// bucketOrNil keeps a missing Supabase config a nil interface rather than a typed nil.
func bucketOrNil(cfg *config.Config) assets.Bucket {
	bucket := assets.NewSupabaseBucket(cfg.SupabaseURL, cfg.SupabaseKey)
	if bucket == nil {
		return nil
	}
	return bucket
}

// Close releases every collaborator that was opened.
func (a *app) Close(ctx context.Context) {
	if a.llm != nil {
		if err := a.llm.Close(); err != nil {
			a.logger.Warn("failed to close AI client", zap.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close campaign cache", zap.Error(err))
		}
	}
	if a.database != nil {
		a.database.Close()
	}
	if a.telemetry != nil {
		if err := a.telemetry(ctx); err != nil {
			a.logger.Warn("failed to flush traces", zap.Error(err))
		}
	}
}
