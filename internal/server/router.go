package server

import (
	"context"
	"net/http"
	"time"

	"barter-exchange/internal/cache"
	"barter-exchange/internal/idempotency"
	"barter-exchange/internal/repository"
	"barter-exchange/internal/session"
	handler "barter-exchange/services/barter/handler"
	"barter-exchange/services/barter/helpers"
	"barter-exchange/utils"

	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the routes are served by.
// Idempotency may be nil, which disables Idempotency-Key handling.
// Cache is only reported on /health and may be nil.
type Dependencies struct {
	Barter      handler.BarterServiceInterface
	Catalog     repository.Catalog
	Sessions    *session.Manager
	Idempotency *idempotency.Store
	Cache       *cache.Cache
}

const healthPingTimeout = time.Second

// healthHandler reports liveness and, when the catalog cache is enabled, its reachability and counters
func healthHandler(catalogCache *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := gin.H{"healthy": true}
		if catalogCache != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
			defer cancel()

			cacheHealth := gin.H{"reachable": true, "stats": catalogCache.Stats()}
			if err := catalogCache.Ping(ctx); err != nil {
				cacheHealth["reachable"] = false
				cacheHealth["error"] = err.Error()
				utils.Warn("health: catalog cache unreachable", map[string]any{"error": err.Error()})
			}
			data["cache"] = cacheHealth
		}
		utils.JSONResponse(c, http.StatusOK, data, "ok")
	}
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	router.GET("/health", healthHandler(deps.Cache))

	barterHandler := handler.NewBarterHandler(deps.Barter)
	productHandler := handler.NewProductHandler(deps.Catalog)

	authed := router.Group("", AuthMiddleware(deps.Sessions))

	products := authed.Group("/products")
	{
		products.GET("", productHandler.ListProductsHandler)
		products.GET("/:product_id", productHandler.GetProductHandler)
	}

	mutating := []gin.HandlerFunc{}
	if deps.Idempotency != nil {
		mutating = append(mutating, idempotency.Middleware(deps.Idempotency, func(c *gin.Context) string {
			return helpers.SessionFromContext(c).UserID
		}))
	}
	with := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, mutating...), h)
	}

	barter := authed.Group("/barter")
	{
		barter.GET("", barterHandler.ListProposalsHandler)
		barter.POST("", with(barterHandler.CreateProposalHandler)...)
		barter.GET("/value-comparison", barterHandler.ValueComparisonHandler)
		barter.GET("/:proposal_id", barterHandler.GetProposalHandler)
		barter.GET("/:proposal_id/counter-draft", barterHandler.CounterDraftHandler)
		barter.PUT("/:proposal_id/status", with(barterHandler.UpdateStatusHandler)...)
		barter.POST("/:proposal_id/counter", with(barterHandler.CounterProposalHandler)...)
	}

	return router
}
