package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"courier/server/internal/config"
	"courier/server/internal/database"
	"courier/server/internal/delivery"
	"courier/server/internal/group"
	"courier/server/internal/handlers"
	"courier/server/internal/logger"
	"courier/server/internal/presence"
	"courier/server/internal/profile"
	"courier/server/internal/receipt"
	"courier/server/internal/routes"
	"courier/server/internal/store"
	"courier/server/internal/story"
	"courier/server/internal/summary"
	"courier/server/internal/utils"
	"courier/server/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Development)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	utils.InitJWT(cfg.JWTSecret)

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		zlog.Fatalw("Failed to connect to database", "err", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		zlog.Fatalw("Failed to migrate schema", "err", err)
	}
	zlog.Infow("Database connected")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		zlog.Fatalw("Failed to connect to redis", "err", err)
	}
	defer rdb.Close()
	zlog.Infow("Redis connected")

	// Core components: durable log, in-process presence, routing on top.
	messages := store.NewPostgres(pool)
	registry := presence.NewRegistry()
	profiles := profile.NewPostgres(pool)
	groups := group.NewPostgres(pool)
	router := delivery.NewRouter(messages, registry, groups, zlog)
	receipts := receipt.NewCoordinator(messages, registry, zlog)
	projector := summary.NewProjector(messages, registry, profiles, groups)
	stories := story.NewService(rdb, profiles, zlog)
	hub := ws.NewHub(registry, router, receipts, messages, profiles, groups, zlog)

	api := &handlers.API{
		Router:    router,
		Receipts:  receipts,
		Projector: projector,
		Store:     messages,
		Profiles:  profiles,
		Groups:    groups,
		Stories:   stories,
		Hub:       hub,
		Reg:       registry,
		Log:       zlog,
	}

	app := fiber.New(fiber.Config{
		AppName: "Courier API v1.0",
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowCredentials: true,
	}))

	routes.SetupRoutes(app, api)

	zlog.Infow("Server starting", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Fatalw("Server stopped", "err", err)
	}
}
