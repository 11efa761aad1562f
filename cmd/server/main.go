package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nearbuyapp/api-nearbuy/internal/config"
	"github.com/nearbuyapp/api-nearbuy/internal/handler"
	"github.com/nearbuyapp/api-nearbuy/internal/middleware"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"github.com/nearbuyapp/api-nearbuy/internal/repository"
	"github.com/nearbuyapp/api-nearbuy/internal/scheduler"
	"github.com/nearbuyapp/api-nearbuy/internal/service"
	"github.com/nearbuyapp/api-nearbuy/internal/ws"
	"github.com/nearbuyapp/api-nearbuy/migrations"
	"github.com/nearbuyapp/api-nearbuy/pkg/auth"
	"github.com/nearbuyapp/api-nearbuy/pkg/notification"
	"github.com/nearbuyapp/api-nearbuy/pkg/oracle"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// @title           NearBuy Alerting API
// @version         1.0
// @description     Geofence and deadline alerting engine for the NearBuy shopping-list app.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      api.localhost
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// ==================== Load Config ====================
	cfg := config.Load()
	log.Printf("🚀 Starting NearBuy Alerting API [env=%s]", cfg.App.Env)

	// ==================== Database (PostgreSQL) ====================
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.App.Env == "production" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	// ==================== Run Migrations ====================
	if err := migrations.Run(cfg.DB.URL()); err != nil {
		log.Printf("⚠️  Migration warning: %v", err)
		log.Println("📦 Falling back to GORM AutoMigrate...")
		// Fallback to AutoMigrate if migration files fail
		if err := db.AutoMigrate(
			&model.User{},
			&model.DeviceToken{},
			&model.List{},
			&model.ListItem{},
			&model.Store{},
			&model.ProximityState{},
			&model.AvailabilityRecord{},
			&model.Alert{},
			&model.AlertItem{},
		); err != nil {
			log.Fatalf("❌ Failed to migrate database: %v", err)
		}
	}
	log.Println("✅ Database migrated successfully")

	// ==================== Redis ====================
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Connected to Redis")

	// ==================== Push (Firebase FCM) ====================
	fcmService, err := notification.NewFCMService(cfg.FCM.CredentialsFile)
	if err != nil {
		log.Printf("⚠️  FCM not available: %v (push delivery disabled)", err)
	}

	// ==================== Initialize Layers ====================
	// JWT Manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	listRepo := repository.NewListRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	proxRepo := repository.NewProximityRepository(db)
	availRepo := repository.NewAvailabilityRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	// Alert feed hub (Redis Pub/Sub for horizontal scaling)
	hub := ws.NewHub(rdb)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	// Services
	predictor := oracle.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.Timeout)
	availabilityService := service.NewAvailabilityService(availRepo, predictor, cfg.Oracle.CacheTTL, cfg.Oracle.MinConfidence)
	proximityService := service.NewProximityService(
		db, listRepo, storeRepo, proxRepo, userRepo, alertRepo,
		availabilityService, fcmService, hub,
		cfg.Alerting.ProximityRadiusMeters, cfg.Alerting.DwellThreshold,
	)
	deadlineService := service.NewDeadlineService(
		db, listRepo, userRepo, alertRepo, fcmService, hub,
		cfg.Alerting.DeadlineWindow,
	)

	// Deadline scheduler (redis lock keeps concurrent instances from double-firing)
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	deadlineScheduler := scheduler.New(
		deadlineService,
		scheduler.NewRedisLocker(rdb, "nearbuy:deadline-scan-lock"),
		cfg.Alerting.ScanInterval,
		"deadline-scan",
	)
	go deadlineScheduler.Run(schedCtx)

	// Handlers
	alertHandler := handler.NewAlertHandler(proximityService, deadlineService, alertRepo, storeRepo)
	deviceHandler := handler.NewDeviceHandler(userRepo)
	wsHandler := handler.NewWSHandler(hub, jwtManager)

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Swagger configuration
	// Serve swagger.json at /docs/swagger.json to avoid conflict with /swagger/* wildcard
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")

	url := ginSwagger.URL("/docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))

	// Global middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "nearbuy-api",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// ==================== API Routes ====================
	api := router.Group("/api/v1")
	{
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager, rdb))
		{
			// Alerting engine
			protected.POST("/location", alertHandler.LocationUpdate)
			protected.GET("/alerts", alertHandler.GetAlerts)

			// Devices
			protected.POST("/devices", deviceHandler.RegisterDevice)

			// Admin / testing hooks
			protected.POST("/admin/deadline-check", alertHandler.TriggerDeadlineCheck)
		}
	}

	// WebSocket endpoint (auth via query parameter)
	router.GET("/ws", wsHandler.HandleWebSocket)

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	log.Printf("🌐 NearBuy Alerting API running on http://0.0.0.0:%s", cfg.App.Port)
	log.Printf("📋 API docs: http://0.0.0.0:%s/swagger/index.html", cfg.App.Port)
	log.Printf("🔌 Alert feed: ws://0.0.0.0:%s/ws?token=<jwt>", cfg.App.Port)
	log.Printf("⏰ Deadline scan every %s (window %s)", cfg.Alerting.ScanInterval, cfg.Alerting.DeadlineWindow)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	// Give ongoing requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	schedCancel()
	hubCancel()
	log.Println("✅ Server exited gracefully")
}
