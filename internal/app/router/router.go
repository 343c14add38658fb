// Package router wires the HTTP handlers into a gin engine.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"freshreceipt_backend/internal/api"
	authhandler "freshreceipt_backend/internal/feature/auth/transport/handler"
	foodhandler "freshreceipt_backend/internal/feature/fooditem/transport/handler"
	householdhandler "freshreceipt_backend/internal/feature/household/transport/handler"
	receipthandler "freshreceipt_backend/internal/feature/receipt/transport/handler"
	platformhandler "freshreceipt_backend/internal/platform/http/handler"
	"freshreceipt_backend/internal/platform/http/middleware"
	jwtmw "freshreceipt_backend/internal/platform/jwt"
)

// Handlers are the feature handlers mounted under /api/v1.
type Handlers struct {
	Auth      *authhandler.AuthHandler
	Household *householdhandler.HouseholdHandler
	FoodItem  *foodhandler.FoodItemHandler
	Receipt   *receipthandler.ReceiptHandler
}

// Options configure the cross-cutting middleware.
type Options struct {
	Verifier       jwtmw.Verifier
	Membership     middleware.MembershipChecker
	AllowedOrigins []string
	HealthChecks   []platformhandler.Check
}

func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.Default()

	if len(opts.AllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = opts.AllowedOrigins
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", api.HeaderHouseholdID}
		corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
		corsConfig.MaxAge = 12 * time.Hour
		r.Use(cors.New(corsConfig))
	}

	// 認証不要
	health := platformhandler.Health(opts.HealthChecks...)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	r.OPTIONS("/healthz", health)
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, api.MessageResponse{Message: "freshreceipt api"})
	})

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)
	}

	// 認証必須のルート
	authed := v1.Group("/")
	authed.Use(jwtmw.AuthRequired(opts.Verifier))
	{
		authed.GET("/auth/me", h.Auth.Me)
		authed.GET("/auth/verify", h.Auth.Verify)

		households := authed.Group("/households")
		households.GET("", h.Household.List)
		households.POST("", h.Household.Create)
		households.POST("/bootstrap", h.Household.Bootstrap)
		households.GET("/:id", h.Household.Get)
		households.PATCH("/:id", h.Household.Update)
		households.DELETE("/:id", h.Household.Delete)
		households.GET("/:id/members", h.Household.Members)
		households.POST("/:id/members", h.Household.Invite)
		households.DELETE("/:id/members/:userID", h.Household.RemoveMember)
	}

	// X-Household-ID で世帯を指定するルート
	scoped := authed.Group("/")
	scoped.Use(middleware.RequireHousehold(opts.Membership))
	{
		items := scoped.Group("/food-items")
		items.GET("", h.FoodItem.List)
		items.POST("", h.FoodItem.Create)
		items.GET("/:id", h.FoodItem.Get)
		items.PATCH("/:id", h.FoodItem.Update)
		items.DELETE("/:id", h.FoodItem.Delete)
		items.POST("/:id/consume", h.FoodItem.Consume)

		receipts := scoped.Group("/receipts")
		receipts.POST("/upload", h.Receipt.Upload)
		receipts.GET("", h.Receipt.List)
		receipts.GET("/:id", h.Receipt.Get)
		receipts.POST("/:id/scan", h.Receipt.Scan)
	}

	return r
}
