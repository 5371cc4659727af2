// Package bootstrap wires configuration, stores, adapters and services.
package bootstrap

import (
	"context"
	"os"

	"jobtrack_server/adapter/out/llm"
	"jobtrack_server/adapter/out/mongodb"
	"jobtrack_server/adapter/out/persistence"
	"jobtrack_server/adapter/out/provider"
	"jobtrack_server/config"
	"jobtrack_server/core/port/out"
	"jobtrack_server/core/service/dashboard"
	"jobtrack_server/core/service/entity"
	"jobtrack_server/core/service/ingest"
	"jobtrack_server/core/service/pipeline"
	"jobtrack_server/infra/database"
	"jobtrack_server/pkg/logger"
	"jobtrack_server/pkg/ratelimit"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Dependencies holds every constructed component.
type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Stores
	EmailStore  out.EmailStore
	CompanyRepo out.CompanyRepository
	ContactRepo out.ContactRepository
	JobStore    out.JobStore
	BodyStore   out.EmailBodyStore

	// Adapters
	LLMClient *llm.Client
	Fetcher   out.EmailFetcher

	// Services
	Processor     pipeline.Processor
	Resolver      *entity.Resolver
	Aggregator    *dashboard.Aggregator
	IngestService *ingest.Service
}

// NewDependencies builds the dependency graph. The returned cleanup closes
// every connection in reverse order.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	// zerolog only for startup banner; runtime logging goes through pkg/logger
	startup := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	startup.Info().Str("env", cfg.Environment).Msg("initializing dependencies")

	deps := &Dependencies{Config: cfg}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// PostgreSQL
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	deps.SQLDB = database.NewSqlxFromPool(db)
	cleanups = append(cleanups, func() { _ = deps.SQLDB.Close() })

	// Redis (optional: without it the token budget uses local counters)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.Redis = redisClient
		cleanups = append(cleanups, func() { _ = redisClient.Close() })
	} else {
		startup.Warn().Msg("REDIS_URL not set, token budget falls back to local counters")
	}

	// MongoDB (optional: without it raw bodies are not archived)
	if cfg.MongoDBURL != "" {
		mongoClient, err := database.NewMongo(cfg.MongoDBURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.MongoDB = mongoClient
		cleanups = append(cleanups, func() {
			_ = mongoClient.Disconnect(context.Background())
		})

		bodyAdapter := mongodb.NewBodyAdapter(mongoClient.Database(cfg.MongoDBName))
		if err := bodyAdapter.EnsureIndexes(context.Background()); err != nil {
			logger.WithError(err).Warn("failed to ensure mongodb indexes")
		}
		deps.BodyStore = bodyAdapter
	} else {
		startup.Warn().Msg("MONGODB_URL not set, raw body archival disabled")
	}

	// Relational stores
	deps.EmailStore = persistence.NewEmailAdapter(deps.SQLDB)
	deps.CompanyRepo = persistence.NewCompanyAdapter(deps.SQLDB)
	deps.ContactRepo = persistence.NewContactAdapter(deps.SQLDB)
	deps.JobStore = persistence.NewJobAdapter(deps.SQLDB)

	// LLM
	deps.LLMClient = llm.NewClientWithConfig(llm.ClientConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	})

	// Gmail fetcher (optional: the API can serve dashboards without it)
	if cfg.GoogleClientID != "" && cfg.GoogleRefreshToken != "" {
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"https://www.googleapis.com/auth/gmail.readonly"},
		}
		token := &oauth2.Token{RefreshToken: cfg.GoogleRefreshToken}
		fetcher, err := provider.NewGmailFetcher(context.Background(), token, oauthCfg)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.Fetcher = fetcher
	} else {
		startup.Warn().Msg("google oauth not configured, processing runs disabled")
	}

	// Services
	budget := ratelimit.NewTokenBudget(deps.Redis, &ratelimit.BudgetConfig{
		TokensPerMinute: cfg.TokensPerMinute,
		TokensPerEmail:  cfg.TokensPerEmail,
		MaxChunkSize:    cfg.MaxChunkSize,
		MinChunkSize:    1,
	})

	// Unified single-call processing is the default; the staged three-call
	// pipeline stays available for models that cannot hold the combined prompt.
	if cfg.PipelineMode == "staged" {
		deps.Processor = pipeline.NewStagedProcessor(deps.LLMClient,
			pipeline.WithSkipNonJobRelated(cfg.SkipNonJobRelated),
			pipeline.WithCapacitySuggester(budget),
		)
	} else {
		deps.Processor = pipeline.NewUnifiedProcessor(deps.LLMClient,
			pipeline.WithUnifiedCapacitySuggester(budget),
		)
	}
	deps.Resolver = entity.NewResolver(deps.CompanyRepo, deps.ContactRepo)
	deps.Aggregator = dashboard.NewAggregator()
	deps.IngestService = ingest.NewService(
		deps.Fetcher, deps.Processor, deps.Resolver,
		deps.EmailStore, deps.JobStore, deps.BodyStore,
	)

	startup.Info().Msg("dependencies ready")
	return deps, cleanup, nil
}
