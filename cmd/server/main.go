package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	_ "github.com/flexprice/posbilling/docs/swagger"
	"github.com/flexprice/posbilling/internal/api"
	"github.com/flexprice/posbilling/internal/api/cron"
	v1 "github.com/flexprice/posbilling/internal/api/v1"
	"github.com/flexprice/posbilling/internal/cache"
	"github.com/flexprice/posbilling/internal/config"
	"github.com/flexprice/posbilling/internal/database"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/publisher"
	"github.com/flexprice/posbilling/internal/pubsub/memory"
	pubsubRouter "github.com/flexprice/posbilling/internal/pubsub/router"
	"github.com/flexprice/posbilling/internal/repository"
	"github.com/flexprice/posbilling/internal/scheduler"
	"github.com/flexprice/posbilling/internal/sentry"
	"github.com/flexprice/posbilling/internal/service"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/flexprice/posbilling/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title POS Billing API
// @version 1.0
// @description Point of sale billing with fiscal year invoice numbering
// @BasePath /v1
// @schemes http https

func main() {
	validator.NewValidator()

	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Database
			database.NewDB,

			// Repositories
			repository.NewBillRepository,
			repository.NewLedgerRepository,

			// Invoice numbering
			service.NewSequenceAllocator,

			// PubSub
			memory.NewPubSub,
			pubsubRouter.NewRouter,

			// Event Publisher
			publisher.NewBillEventPublisher,
		),
	)

	// Monitoring
	opts = append(opts, sentry.Module())

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewBillService,
			service.NewLedgerSyncService,
			service.NewSequenceService,

			scheduler.NewScheduler,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			startServer,
		),
	)

	// leaves room for the ledger warmup retries
	opts = append(opts, fx.StartTimeout(90*time.Second))

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	db *database.DB,
	billService service.BillService,
	sequenceService service.SequenceService,
	ledgerSyncService service.LedgerSyncService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(db, logger),
		Bill:         v1.NewBillHandler(billService, logger),
		Sequence:     v1.NewSequenceHandler(sequenceService, logger),
		CronSequence: cron.NewSequenceHandler(sequenceService, ledgerSyncService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *database.DB,
	router *pubsubRouter.Router,
	ledgerSyncService service.LedgerSyncService,
	sequenceService service.SequenceService,
	cronScheduler *scheduler.Scheduler,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	// hooks start in order: schema, ledger sync, sequence, then traffic
	startDatabase(lc, db, cfg, log)
	startMessageRouter(lc, router, ledgerSyncService, log)
	startSequenceWarmup(lc, sequenceService, log)

	switch mode {
	case types.ModeLocal:
		startScheduler(lc, cronScheduler, log)
		startAPIServer(lc, r, cfg, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startDatabase(
	lc fx.Lifecycle,
	db *database.DB,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.Database.AutoMigrate {
				return nil
			}
			log.Info("applying database schema")
			return db.Migrate(ctx)
		},
		OnStop: func(ctx context.Context) error {
			log.Info("closing database")
			return db.Close()
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	ledgerSyncService service.LedgerSyncService,
	logger *logger.Logger,
) {
	// Register handlers before starting the router
	ledgerSyncService.RegisterHandler(router)

	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting message router")
			go func() {
				if err := router.Run(runCtx); err != nil {
					logger.Errorw("message router failed", "error", err)
				}
			}()

			select {
			case <-router.Running():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping message router")
			defer cancel()
			return router.Close()
		},
	})
}

func startSequenceWarmup(
	lc fx.Lifecycle,
	sequenceService service.SequenceService,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// an unreachable ledger must not keep the till from starting; the
			// allocator reconciles again on the first finalize
			if err := sequenceService.Warmup(ctx); err != nil {
				log.Errorw("sequence warmup failed, numbering will sync on first use", "error", err)
			}
			return nil
		},
	})
}

func startScheduler(
	lc fx.Lifecycle,
	cronScheduler *scheduler.Scheduler,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := cronScheduler.Start(); err != nil {
				return err
			}
			log.Infow("scheduler started", "next_rollover", cronScheduler.NextRun())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return cronScheduler.Stop(ctx)
		},
	})
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}
