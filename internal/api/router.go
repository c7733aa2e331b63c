package api

import (
	"github.com/flexprice/posbilling/internal/api/cron"
	v1 "github.com/flexprice/posbilling/internal/api/v1"
	"github.com/flexprice/posbilling/internal/config"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/rest/middleware"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	Health   *v1.HealthHandler
	Bill     *v1.BillHandler
	Sequence *v1.SequenceHandler

	CronSequence *cron.SequenceHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CORSMiddleware(cfg),
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1Group := router.Group("/v1")
	v1Group.Use(middleware.UserIDMiddleware)
	registerV1Routes(v1Group, handlers)

	cronGroup := v1Group.Group("/cron")
	{
		cronGroup.POST("/sequence/rollover", handlers.CronSequence.Rollover)
		cronGroup.POST("/ledger/replay", handlers.CronSequence.ReplayLedger)
	}

	logger.Debugw("api routes registered", "routes", len(router.Routes()))
	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	router.GET("/health", handlers.Health.Health)

	bills := router.Group("/bills")
	{
		bills.POST("", handlers.Bill.CreateBill)
		bills.GET("", handlers.Bill.ListBills)
		bills.GET("/:id", handlers.Bill.GetBill)
		bills.PUT("/:id", handlers.Bill.UpdateBill)
		bills.PATCH("/:id/details", handlers.Bill.UpdateDetails)
		bills.POST("/:id/finalize", handlers.Bill.FinalizeBill)
		bills.POST("/:id/print", handlers.Bill.PrintBill)
		bills.POST("/:id/void", handlers.Bill.VoidBill)
	}

	sequence := router.Group("/sequence")
	{
		sequence.GET("", handlers.Sequence.GetState)
		sequence.POST("/override", handlers.Sequence.SetOverride)
		sequence.POST("/next-serial", handlers.Sequence.SetNextSerial)
		sequence.POST("/reset", handlers.Sequence.Reset)
	}
}
