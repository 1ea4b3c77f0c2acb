package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ftfc/crm/internal/adapter/handler"
	"github.com/ftfc/crm/internal/adapter/repository"
	"github.com/ftfc/crm/internal/infrastructure/cache"
	"github.com/ftfc/crm/internal/infrastructure/database"
	"github.com/ftfc/crm/internal/infrastructure/external/google"
	"github.com/ftfc/crm/internal/infrastructure/external/oauth"
	"github.com/ftfc/crm/internal/infrastructure/storage"
	"github.com/ftfc/crm/internal/usecase/auth"
	"github.com/ftfc/crm/internal/usecase/calendly"
	"github.com/ftfc/crm/internal/usecase/notes"
	"github.com/ftfc/crm/internal/usecase/risc"
	"github.com/ftfc/crm/pkg/config"
	"github.com/ftfc/crm/pkg/jwt"
	"github.com/ftfc/crm/pkg/metrics"
	"github.com/ftfc/crm/pkg/secrets"
)

// App holds the wired services shared by the API server and the CLI
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *gorm.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	OAuth     *auth.OAuthService
	Scanner   *notes.Scanner
	Scheduler *notes.Scheduler
	RISC      *risc.Receiver
	Calendly  *calendly.Service
	Archive   *storage.MinIOClient

	transcripts *repository.TranscriptRepository
	redis       *redis.Client
}

// Options selects the optional parts of the wiring
type Options struct {
	// Webhooks loads the RISC signing keys and builds the webhook receivers
	Webhooks bool
}

// New connects to the database, Redis and object storage and builds every
// service. Redis is optional: without it the OAuth state and the scan run
// lock are kept in process memory.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	tokenKey, err := cfg.TokenKeyBytes()
	if err != nil {
		return nil, err
	}
	sealer, err := secrets.NewSealer(tokenKey)
	if err != nil {
		return nil, fmt.Errorf("create token sealer: %w", err)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	if cfg.Database.AutoMigrate {
		if cfg.IsProduction() {
			_ = database.CloseDB(db)
			return nil, fmt.Errorf("DB_AUTO_MIGRATE is enabled in production; run ftfcctl migrate up instead")
		}
		logger.Info("Applying database migrations")
		if err := database.AutoMigrate(db); err != nil {
			_ = database.CloseDB(db)
			return nil, err
		}
	}

	var (
		stateStore oauth.Store
		runLock    notes.RunLock
	)
	redisClient, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory state and run lock", zap.Error(err))
		memory := cache.NewMemoryStore()
		stateStore = memory
		runLock = cache.NewMemoryLock(memory)
	} else {
		a.redis = redisClient
		stateStore = cache.NewRedisStore(redisClient)
		runLock = cache.NewLock(redisClient)
	}

	var archive notes.Archive
	if cfg.Storage.Enabled {
		a.Archive, err = storage.NewMinIOClient(ctx, &cfg.Storage)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect object storage: %w", err)
		}
		archive = a.Archive
	}

	// Repositories
	members := repository.NewTeamMemberRepository(db)
	entityRepo := repository.NewEntityRepository(db)
	contacts := repository.NewContactRepository(db)
	activities := repository.NewActivityRepository(db)
	notesRepo := repository.NewNotesRepository(db)
	securityEvents := repository.NewSecurityEventRepository(db)
	meetings := repository.NewMeetingRepository(db)
	a.transcripts = repository.NewTranscriptRepository(db)

	// Google connection
	provider := oauth.NewGoogleProvider(
		cfg.OAuth.Google.ClientID,
		cfg.OAuth.Google.ClientSecret,
		cfg.OAuth.Google.RedirectURL,
	)
	a.OAuth = auth.NewOAuthService(
		members,
		provider,
		oauth.NewStateManager(stateStore),
		jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry),
		sealer,
		logger,
	)

	// Notes pipeline
	resolver := notes.NewResolver(entityRepo, contacts, a.Metrics, logger)
	a.Scanner = notes.NewScanner(
		notes.ScannerConfig{
			Lookback:   cfg.Notes.Lookback,
			RunLockTTL: cfg.Notes.RunLockTTL,
		},
		members,
		a.OAuth,
		google.NewDriveClient(logger, cfg.Notes.RetryMaxElapse),
		google.NewDocsClient(logger, cfg.Notes.RetryMaxElapse),
		notes.NewGate(notesRepo, cfg.Notes.ClaimTTL),
		resolver,
		notes.NewPersister(notesRepo, archive, logger),
		runLock,
		a.Metrics,
		logger,
	)
	a.Scheduler = notes.NewScheduler(a.Scanner, cfg.Notes.ScanInterval, logger)

	if opts.Webhooks {
		keyfunc, err := risc.NewJWKSKeyfunc(ctx, cfg.RISC.JWKSURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("load RISC signing keys: %w", err)
		}
		a.RISC = risc.NewReceiver(members, securityEvents, keyfunc, cfg.RISC.Issuer, cfg.OAuth.Google.ClientID, a.Metrics, logger)
		a.Calendly = calendly.NewService(meetings, activities, resolver, a.Metrics, logger)
	}

	return a, nil
}

// Router builds the HTTP routes over the wired services
func (a *App) Router() *handler.Router {
	var archive handler.ArchiveLinker
	if a.Archive != nil {
		archive = a.Archive
	}

	var webhooks *handler.Webhooks
	if a.RISC != nil {
		webhooks = handler.NewWebhooks(a.RISC, a.Calendly, a.Config.Calendly.SigningKey, a.Config.Calendly.Tolerance, a.Logger)
	}

	return handler.NewRouter(
		a.Config.Server.Environment,
		handler.NewAuth(a.OAuth, a.Config.IsProduction(), a.Logger),
		handler.NewNotes(a.Scanner, a.transcripts, archive, a.Logger),
		webhooks,
		a.OAuth,
		a.Registry,
	)
}

// Close releases the database and Redis connections
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if err := database.CloseDB(a.DB); err != nil {
		a.Logger.Warn("Failed to close database", zap.Error(err))
	}
}

// NewLogger returns a production zap logger, or a development one outside
// production
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg != nil && cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ShutdownTimeout is how long the server waits for in-flight requests
func ShutdownTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Server.ShutdownTimeout) * time.Second
}
