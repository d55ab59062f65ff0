package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"mindhaven/internal/api"
	"mindhaven/internal/auth"
	"mindhaven/internal/completion"
	"mindhaven/internal/config"
	"mindhaven/internal/logger"
	"mindhaven/internal/redis"
	"mindhaven/internal/service/conversation"
	"mindhaven/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	cfg, err := config.Load(os.Getenv("MINDHAVEN_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLog, err := logger.New(cfg.BasicConfig.LogMode)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer appLog.Sync()

	dbType := os.Getenv("MINDHAVEN_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	appLog.Info("opening database", "driver", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		appLog.Fatal("open database", "error", err)
	}
	defer db.Close()

	// users, sessions, messages, user_tokens
	if err := storage.Migrate(db, dbType); err != nil {
		appLog.Fatal("migrate database", "error", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewRedisClient(cfg)
		if err != nil {
			appLog.Fatal("create redis client", "error", err)
		}
		defer rdb.Close()
	}

	gateway, err := completion.NewGateway(cfg.Completion, appLog)
	if err != nil {
		appLog.Fatal("init completion gateway", "error", err)
	}
	if os.Getenv(cfg.Completion.APIKeyEnv) == "" {
		appLog.Warn("completion credential not set; requests will fail until it is", "env", cfg.Completion.APIKeyEnv)
	}
	completer := completion.NewCompleter(gateway, appLog)
	conversations := conversation.NewService(db, completer, appLog)

	ttl := time.Duration(cfg.BasicConfig.TokenTTLHours) * time.Hour
	authService := auth.NewService(db, rdb, ttl).WithLogger(appLog)

	handlers := api.NewHandler(conversations, completer, authService, appLog)
	handlers.AddHealthCheck("database", db.PingContext)
	if rdb != nil {
		handlers.AddHealthCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx) })
	}

	if cfg.BasicConfig.LogMode == "prod" || cfg.BasicConfig.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestID(), api.RequestLogger(appLog), api.CORS(cfg.BasicConfig.AllowedOrigins))
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}
	appLog.Info("server listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		appLog.Fatal("server stopped", "error", err)
	}
}
