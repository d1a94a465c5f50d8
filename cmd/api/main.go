package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"musili-homes-backend/internal/config"
	"musili-homes-backend/internal/database"
	"musili-homes-backend/internal/handlers"
	"musili-homes-backend/internal/logging"
	"musili-homes-backend/internal/ratelimit"
	"musili-homes-backend/internal/scheduler"
	"musili-homes-backend/internal/search"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	log := logging.GetLogger()

	// Load configuration
	configPath := getEnv("CONFIG_PATH", "config/config.yaml")
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Infof("Loaded configuration from %s", configPath)
	}
	logging.SetLevel(appConfig.Logging.Level)

	// Primary store: MySQL via GORM
	mysqlCfg := appConfig.Database.MySQL
	portStr := ""
	if mysqlCfg.Port > 0 {
		portStr = fmt.Sprintf("%d", mysqlCfg.Port)
	}

	gormDB, err := database.NewGormDB(
		getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
		getEnvOrConfig(portStr, "DB_PORT", "3306"),
		getEnvOrConfig(mysqlCfg.User, "DB_USER", "musili_user"),
		getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "musili_pass"),
		getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "musili_db"),
	)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	defer gormDB.Close()

	if err := gormDB.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Optional read replica: PostgreSQL, mirrored on every write
	var replica *database.DB
	if appConfig.Database.Type == "dual" || getEnv("REPLICA_ENABLED", "") == "true" {
		pgCfg := appConfig.Database.Postgres
		pgPortStr := ""
		if pgCfg.Port > 0 {
			pgPortStr = fmt.Sprintf("%d", pgCfg.Port)
		}

		replica, err = database.NewDB(
			getEnvOrConfig(pgCfg.Host, "REPLICA_HOST", "postgres"),
			getEnvOrConfig(pgPortStr, "REPLICA_PORT", "5432"),
			getEnvOrConfig(pgCfg.User, "REPLICA_USER", "musili_user"),
			getEnvOrConfig(pgCfg.Password, "REPLICA_PASSWORD", "musili_pass"),
			getEnvOrConfig(pgCfg.Database, "REPLICA_NAME", "musili_db"),
		)
		if err != nil {
			log.Warnf("Failed to connect to replica, continuing without it: %v", err)
			replica = nil
		} else {
			defer replica.Close()
			if err := replica.InitSchema(); err != nil {
				log.Warnf("Failed to initialize replica schema: %v", err)
			}
		}
	}

	// Search index
	meiliHost := getEnvOrConfig(appConfig.Search.Meilisearch.Host, "MEILISEARCH_HOST", "http://meilisearch:7700")
	meiliKey := getEnvOrConfig(appConfig.Search.Meilisearch.APIKey, "MEILISEARCH_KEY", "")

	searchClient := search.NewSearchClient(meiliHost, meiliKey, appConfig.Search.Meilisearch.Index)
	if err := searchClient.InitIndex(); err != nil {
		log.Warnf("Failed to initialize search index: %v", err)
	}

	// Rate limiter guards imports and uploads
	rateLimiter := ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)
	log.Infof("Rate limiter initialized: %d req/min, %d req/hour (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)

	// Nightly maintenance and image job worker
	appScheduler := scheduler.NewScheduler(gormDB, searchClient, appConfig)
	if err := appScheduler.Start(); err != nil {
		log.Warnf("Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	imageWorker := scheduler.NewImageWorker(
		gormDB,
		appConfig.Uploads.Dir,
		appConfig.Uploads.GetWorkerInterval(),
		appConfig.Uploads.WorkerBatchSize,
	)
	imageWorker.Start()
	defer imageWorker.Stop()

	// Handlers
	propertyHandler := handlers.NewPropertyHandler(gormDB, replica, searchClient, appConfig)
	importExportHandler := handlers.NewImportExportHandler(gormDB, searchClient, appConfig.Import.MaxRows)
	uploadHandler := handlers.NewUploadHandler(gormDB, appConfig)
	adminHandler := handlers.NewAdminHandler(gormDB.DB(), appScheduler, imageWorker, rateLimiter)

	// Router
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/health", healthCheck)

	api := r.Group("/api")
	{
		// Listings
		api.GET("/properties", propertyHandler.ListProperties)
		api.GET("/properties/featured", propertyHandler.GetFeaturedProperties)
		api.GET("/properties/:id", propertyHandler.GetProperty)
		api.POST("/properties", propertyHandler.CreateProperty)
		api.PUT("/properties/:id", propertyHandler.UpdateProperty)
		api.DELETE("/properties/:id", propertyHandler.DeleteProperty)

		// Agents
		api.GET("/agents", propertyHandler.ListAgents)

		// Search
		api.GET("/search", propertyHandler.SearchProperties)

		// CSV import/export, rate limited
		api.POST("/import", rateLimiter.Middleware(), importExportHandler.ImportCSV)
		api.GET("/export", importExportHandler.ExportCSV)
		api.GET("/import/template", importExportHandler.DownloadTemplate)

		// Image uploads, rate limited
		api.POST("/properties/:id/images", rateLimiter.Middleware(), uploadHandler.UploadPropertyImage)
		api.GET("/properties/:id/images", uploadHandler.GetPropertyImages)
		api.POST("/properties/:id/images/responsive", rateLimiter.Middleware(), uploadHandler.BuildResponsiveSet)
		api.POST("/images/optimize", rateLimiter.Middleware(), uploadHandler.OptimizeImage)

		// Rate limiter stats
		api.GET("/ratelimit/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, rateLimiter.GetStats())
		})
	}

	admin := r.Group("/api/admin")
	{
		// Statistics
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/activity", adminHandler.GetRecentActivity)
		admin.GET("/location-stats", adminHandler.GetLocationStats)
		admin.GET("/price-distribution", adminHandler.GetPriceDistribution)
		admin.GET("/queue/stats", adminHandler.GetQueueStats)

		// Maintenance control
		admin.POST("/maintenance/trigger", adminHandler.TriggerMaintenance)

		// Cleanup operations
		admin.POST("/cleanup/run", adminHandler.RunCleanup)
		admin.GET("/cleanup/logs", adminHandler.GetDeleteLogs)

		// Listing history
		admin.GET("/properties/:id/history", adminHandler.GetPropertyHistory)
		admin.GET("/properties/:id/changes", adminHandler.GetPropertyChanges)
		admin.GET("/changes/recent", adminHandler.GetRecentChanges)
		admin.GET("/changes/price-drops", adminHandler.GetPriceDrops)
	}

	port := getEnv("PORT", fmt.Sprintf("%d", appConfig.Server.Port))
	log.Infof("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}
