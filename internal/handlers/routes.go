package handlers

import (
	"log"
	"strings"
	"time"

	"spark-ledger/internal/auth"
	"spark-ledger/internal/cache"
	"spark-ledger/internal/catalog"
	"spark-ledger/internal/middleware"
	"spark-ledger/internal/reports"
	"spark-ledger/internal/sales"
	"spark-ledger/internal/settings"
	"spark-ledger/internal/uploads"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs. Guard and Assistant may be nil.
type Deps struct {
	DB        *gorm.DB
	Tokens    *auth.TokenManager
	Catalog   *catalog.Store
	Engine    *sales.Engine
	Ledger    *sales.Ledger
	Reporter  *reports.Reporter
	Settings  *settings.Store
	Images    ImageStore
	UploadDir string
	Guard     cache.IdempotencyGuard
	Assistant Assistant
	Location  *time.Location

	AllowRegistration bool
}

// SetupRoutes registers the public storefront routes and the admin API on r.
func SetupRoutes(r *gin.Engine, d Deps) {
	system := NewSystemHandler(d.DB)
	authH := NewAuthHandler(d.DB, d.Tokens)
	products := NewProductHandler(d.Catalog, d.Images)
	categories := NewCategoryHandler(d.Catalog)
	salesH := NewSaleHandler(d.Engine, d.Ledger, d.Guard, d.Location)
	reportsH := NewReportHandler(d.Reporter, d.Location)
	settingsH := NewSettingsHandler(d.Settings)
	ai := NewAIHandler(d.Assistant)

	if d.UploadDir != "" {
		r.Static(strings.TrimSuffix(uploads.URLPrefix, "/"), d.UploadDir)
	}

	api := r.Group("/api")
	api.GET("/health", system.Health)

	// --- Storefront (public) ---
	api.GET("/categories", categories.List)
	api.GET("/products", products.List)
	api.GET("/products/:id", products.Get)
	api.GET("/settings", settingsH.Get)

	// --- Authentication ---
	api.POST("/auth/login", authH.Login)
	if d.AllowRegistration {
		api.POST("/auth/register", authH.Register)
		log.Println("WARNING: registration route is OPEN. Disable this in production!")
	}

	// --- Admin only ---
	admin := api.Group("/")
	admin.Use(middleware.AuthMiddleware(d.Tokens), middleware.RequireRole("admin"))
	{
		admin.GET("/auth/me", authH.Me)

		admin.POST("/categories", categories.Create)
		admin.PUT("/categories/:id", categories.Update)
		admin.DELETE("/categories/:id", categories.Delete)

		admin.POST("/products", products.Create)
		admin.PUT("/products/:id", products.Update)
		admin.DELETE("/products/:id", products.Delete)

		admin.GET("/sales", salesH.List)
		admin.POST("/sales", salesH.Record)

		admin.GET("/stats", reportsH.Stats)
		admin.GET("/reports/sales", reportsH.SalesSummary)
		admin.GET("/reports/valuation", reportsH.Valuation)

		admin.PUT("/settings", settingsH.Put)

		admin.POST("/ask", ai.Ask)
	}
}
