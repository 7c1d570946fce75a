package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/churnwatch/backend/internal/actions"
	"github.com/churnwatch/backend/internal/config"
	"github.com/churnwatch/backend/internal/db"
	"github.com/churnwatch/backend/internal/engine"
	"github.com/churnwatch/backend/internal/http/handlers"
	"github.com/churnwatch/backend/internal/http/middleware"
	"github.com/churnwatch/backend/internal/scoring"

	_ "github.com/churnwatch/backend/docs"
)

func Router(cfg config.Config, store *db.Store, actionStore *actions.Store, scorer scoring.Scorer, classifier engine.Classifier, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:           store,
		Actions:         actionStore,
		Scorer:          scorer,
		Classifier:      classifier,
		Validator:       validator.New(),
		Logger:          logger,
		AdminKey:        cfg.AdminKey,
		DefaultPageSize: cfg.DefaultPageSize,
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/dashboard/summary", h.DashboardSummary)
		api.GET("/customers", h.CustomersList)
		api.GET("/customers/:id", h.CustomerDetails)
		api.GET("/runs/latest", h.RunsLatest)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/import", h.Import)
		admin.POST("/score", h.Score)
		admin.POST("/customers/:id/actions", h.ApplyAction)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
