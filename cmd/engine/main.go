package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/catalogforge/enrichment-engine/internal/api"
	"github.com/catalogforge/enrichment-engine/internal/batch"
	"github.com/catalogforge/enrichment-engine/internal/broadcast"
	"github.com/catalogforge/enrichment-engine/internal/cache"
	"github.com/catalogforge/enrichment-engine/internal/config"
	"github.com/catalogforge/enrichment-engine/internal/confidence"
	"github.com/catalogforge/enrichment-engine/internal/db"
	"github.com/catalogforge/enrichment-engine/internal/logging"
	"github.com/catalogforge/enrichment-engine/internal/metrics"
	"github.com/catalogforge/enrichment-engine/internal/providers"
	"github.com/catalogforge/enrichment-engine/internal/queue"
	"github.com/catalogforge/enrichment-engine/internal/workers"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger = logging.NewFromEnv()
	}
	defer logger.Sync()

	logger.Info("starting enrichment engine")

	ctx := context.Background()

	var (
		store   *db.PostgresStore
		q       queue.Queue = queue.NoopQueue{}
		rq      *queue.RiverQueue
		records *db.RecordStore
		photos  *db.PhotoStore
		logs    *db.ProcessingLogStore
		batches *db.BatchStore
		users   *db.UserStore
		acache  *db.AnalysisCacheStore
	)

	if cfg.DatabaseURL != "" {
		store, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("failed to connect to postgres, continuing in degraded mode", zap.Error(err))
		} else {
			if err := store.InitSchema(ctx); err != nil {
				logger.Warn("schema init failed", zap.Error(err))
			}
			records = db.NewRecordStore(store)
			photos = db.NewPhotoStore(store)
			logs = db.NewProcessingLogStore(store)
			batches = db.NewBatchStore(store)
			users = db.NewUserStore(store)
			acache = db.NewAnalysisCacheStore(store)
		}
	}
	if store != nil {
		defer store.Close()
	}

	var dataCache cache.Cache = cache.NoopCache{}
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			logger.Warn("failed to connect to redis, continuing without caching", zap.Error(err))
		} else if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, continuing without caching", zap.Error(err))
		} else {
			dataCache = redisCache
		}
	}

	hub := broadcast.NewHub()
	defer hub.Close()

	var ledger *batch.Ledger
	if batches != nil {
		ledger = batch.NewLedger(batches, hub)
	}

	weights := confidence.Weights{
		Normalization:  cfg.Weights.Normalization,
		Geocoding:      cfg.Weights.Geocoding,
		PlaceCross:     cfg.Weights.PlaceCross,
		VisualAnalysis: cfg.Weights.VisualAnalysis,
		NomeFantasia:   cfg.Weights.NomeFantasia,
		Document:       cfg.Weights.Document,
	}

	httpClient := &http.Client{Timeout: cfg.Timeouts.Geocoder}

	geocoderA, err := providers.NewGeocoderA(cfg.GoogleMapsAPIKey)
	if err != nil {
		logger.Warn("geocoder A init failed, falling back to empty client", zap.Error(err))
	}
	placesClient, err := providers.NewPlacesClient(cfg.GoogleMapsAPIKey)
	if err != nil {
		logger.Warn("places client init failed, falling back to empty client", zap.Error(err))
	}

	deps := &workers.Deps{
		Records:       records,
		Photos:        photos,
		Logs:          logs,
		AnalysisCache: acache,

		Cache:   dataCache,
		Queue:   q,
		Ledger:  ledger,
		Hub:     hub,
		Weights: weights,
		Cfg:     cfg,
		Logger:  logger,
		Metrics: metrics.NewRecorder(),

		TaxRegistry: providers.NewTaxRegistryClient(
			getEnvOrDefault("TAX_REGISTRY_BASE_URL", ""),
			getEnvOrDefault("TAX_REGISTRY_API_KEY", ""),
			cfg.Timeouts.TaxRegistry,
		),
		CPFRegistry: providers.NewCPFRegistryClient(
			getEnvOrDefault("CPF_REGISTRY_PRIMARY_URL", ""),
			getEnvOrDefault("CPF_REGISTRY_FALLBACK_URL", ""),
			getEnvOrDefault("CPF_REGISTRY_TOKEN_URL", ""),
			getEnvOrDefault("CPF_REGISTRY_CLIENT_ID", ""),
			getEnvOrDefault("CPF_REGISTRY_CLIENT_SECRET", ""),
			cfg.Timeouts.CPFRegistry,
			cfg.CPFRateLimitPerMinute,
		),
		GeocoderA: geocoderA,
		GeocoderB: providers.NewGeocoderB(getEnvOrDefault("GEOCODER_B_BASE_URL", ""), httpClient),
		Places:    placesClient,
		PhotoFetch: providers.NewPhotoFetcher(
			&http.Client{Timeout: 30 * time.Second},
			placesClient,
		),
		TextLLMA:   providers.NewAnthropicTextLLM(cfg.AnthropicAPIKey, ""),
		TextLLMB:   providers.NewOpenAITextLLM(cfg.OpenAIAPIKey, ""),
		VisionPre:  providers.NewAnthropicVisionLLM(cfg.AnthropicAPIKey, cfg.VisionModelPrimary),
		VisionDeep: providers.NewOpenAIVisionLLM(cfg.OpenAIAPIKey, cfg.VisionModelSecondary),
		Analyst:    providers.NewAnalystLLM(cfg.AnthropicAPIKey, ""),
	}

	if store != nil && store.Pool() != nil {
		w, err := workers.Register(deps)
		if err != nil {
			logger.Warn("failed to register workers, falling back to noop queue", zap.Error(err))
		} else {
			rq, err = queue.New(store.Pool(), w)
			if err != nil {
				logger.Warn("failed to build river queue, falling back to noop queue", zap.Error(err))
			} else {
				deps.Queue = rq
				if err := rq.Start(ctx); err != nil {
					logger.Warn("failed to start river queue, falling back to noop queue", zap.Error(err))
					deps.Queue = queue.NoopQueue{}
					rq = nil
				}
			}
		}
	} else {
		logger.Warn("no database connection, pipeline jobs will not be queued")
	}
	if rq != nil {
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := rq.Stop(stopCtx); err != nil {
				logger.Warn("river queue stop failed", zap.Error(err))
			}
		}()
	}

	r := api.SetupRouter(deps, users, batches)

	logger.Info("engine listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
