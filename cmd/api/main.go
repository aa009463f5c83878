package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/tic-tac-toe/backend/internal/config"
	"github.com/iamasit07/tic-tac-toe/backend/internal/logging"
	"github.com/iamasit07/tic-tac-toe/backend/internal/repository/postgres"
	"github.com/iamasit07/tic-tac-toe/backend/internal/repository/redis"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/account"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/bot"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/cleanup"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/game"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/matchmaking"
	transportHttp "github.com/iamasit07/tic-tac-toe/backend/internal/transport/http"
	"github.com/iamasit07/tic-tac-toe/backend/internal/transport/http/middleware"
	"github.com/iamasit07/tic-tac-toe/backend/internal/transport/websocket"
	"github.com/iamasit07/tic-tac-toe/backend/pkg/auth"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	envErr := godotenv.Load()
	if envErr != nil {
		envErr = godotenv.Load("../.env")
	}

	cfg := config.LoadConfig()
	logging.Setup(cfg.LogLevel, !cfg.IsProduction())
	if envErr != nil {
		log.Info().Msg("No .env file found")
	}

	// 1. Database
	db, err := postgres.InitDB(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeMin)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	log.Info().Msg("Running database migrations...")
	if err := postgres.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	gameRepo := postgres.NewGameRepo(db)
	userRepo := postgres.NewUserRepo(db)

	// 2. Redis is optional
	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	var cache *redis.RedisCache
	if client := redis.InitRedis(rootCtx, cfg.RedisURL, cfg.RedisPassword); client != nil {
		cache = redis.NewRedisCache(client)
		defer cache.Close()
	}
	var accountCache account.CacheRepository
	var gameCache game.CacheRepository
	if cache != nil {
		accountCache, gameCache = cache, cache
	}

	// 3. Services
	engine := bot.NewEngine(
		bot.WithPolicy(bot.DifficultyEasy, bot.RandomWithProbability(cfg.EasyRandomMoveProb)),
		bot.WithPolicy(bot.DifficultyMedium, bot.RandomWithProbability(cfg.MediumRandomMoveProb)),
	)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	accounts := account.NewService(userRepo, tokens, accountCache)
	connManager := websocket.NewConnectionManager()
	sessionManager := game.NewSessionManager(engine, connManager, gameRepo, gameCache, cfg.BotMoveDelay)

	queue := matchmaking.NewQueue(cfg.MatchmakingTimeout)

	go cleanup.NewWorker(sessionManager, cfg.SessionCleanupPeriod).Start(rootCtx)
	go matchmaking.Listen(rootCtx, queue, sessionManager, bot.ParseDifficulty(cfg.MatchmakingFallback))

	// 4. Handlers
	authHandler := transportHttp.NewAuthHandler(accounts, userRepo, connManager, accountCache, cfg.IsProduction())
	historyHandler := transportHttp.NewHistoryHandler(gameRepo)
	gamesHandler := transportHttp.NewGamesHandler(sessionManager)
	analyzeHandler := transportHttp.NewAnalyzeHandler(engine)
	wsHandler := websocket.NewHandler(connManager, sessionManager, queue, accounts, cfg.AllowedOrigins)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(), gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": connManager.Count()})
	})

	// Public routes
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)
	router.GET("/api/leaderboard", authHandler.GetLeaderboard)
	router.POST("/api/analyze", analyzeHandler.Analyze)
	router.GET("/api/games", gamesHandler.GetLiveGames)
	router.GET("/api/games/:id", gamesHandler.GetGame)

	// Google sign-in is enabled by GOOGLE_CLIENT_ID
	if oauthCfg := config.LoadOAuthConfig(); oauthCfg != nil {
		oauthHandler := transportHttp.NewOAuthHandler(accounts, oauthCfg, connManager, cfg.FrontendURL, cfg.IsProduction())
		router.GET("/api/auth/google", oauthHandler.GoogleLogin)
		router.GET("/api/auth/google/callback", oauthHandler.GoogleCallback)
		log.Info().Msg("Google sign-in enabled")
	}

	// Protected routes
	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware(accounts))
	{
		protected.POST("/api/auth/logout", authHandler.Logout)
		protected.GET("/api/auth/me", authHandler.Me)
		protected.GET("/api/history", historyHandler.GetHistory)
		protected.GET("/api/history/:id", historyHandler.GetGameDetails)
	}

	// WebSocket auth happens in the init message
	router.GET("/ws", wsHandler.HandleWebSocket)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Msgf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Server is shutting down...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	sessionManager.Wait()

	log.Info().Msg("Server exited gracefully")
}
