package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"bgaming-proxy/internal/config"
	"bgaming-proxy/internal/handlers"
	"bgaming-proxy/internal/middleware"
	"bgaming-proxy/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var cache services.SessionCache
	var limiter services.RateLimiter
	switch cfg.SessionCache {
	case "redis":
		redisCache, err := services.NewRedisSessionCache(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		cache = redisCache
		limiter = redisCache
	default:
		cache = services.NewMemorySessionCache(cfg.SessionTTL)
		limiter = services.NewMemoryRateLimiter()
	}

	monitorHandler := handlers.NewMonitorHandler()

	ledger := services.NewLedger(cfg.StartingBalanceCents, monitorHandler)
	sessions := services.NewSessionStore(cache, monitorHandler)
	signer := services.NewSigner(cfg.SigningSecret)
	jwtService := services.NewJWTService(cfg.JWTSecret)
	upstream := services.NewUpstreamClient(cfg)
	translator := services.NewTranslator(ledger, sessions, upstream, cfg)

	authHandler := handlers.NewAuthHandler(jwtService, cfg)
	sessionHandler := handlers.NewSessionHandler(sessions, translator, signer, cfg)
	callbackHandler := handlers.NewCallbackHandler(translator, sessions, ledger)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			if n := sessions.ExpireStale(cfg.SessionTTL); n > 0 {
				log.Printf("Expired %d stale sessions", n)
			}
		}
	}()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/", sessionHandler.Home)
	router.POST("/auth/token", authHandler.IssueToken)

	bgaming := router.Group("/api/bgaming")
	bgaming.Use(middleware.RateLimitMiddleware(limiter))
	{
		bgaming.GET("/launch/:gameID", sessionHandler.LaunchGame)
		bgaming.GET("/entry-session", sessionHandler.EntrySession)
		bgaming.Any("/callback/*path", callbackHandler.HandleCallback)
		bgaming.GET("/asset/:assetName", sessionHandler.Asset)
	}

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService), middleware.RateLimitMiddleware(limiter))
	{
		protected.POST("/sessions", sessionHandler.CreateSession)
		protected.GET("/monitor/ws", monitorHandler.HandleWebSocket)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
