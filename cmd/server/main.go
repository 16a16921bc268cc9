package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hall-pass/internal/config"
	"github.com/iliyamo/hall-pass/internal/database"
	"github.com/iliyamo/hall-pass/internal/handler"
	"github.com/iliyamo/hall-pass/internal/middleware"
	"github.com/iliyamo/hall-pass/internal/pass"
	"github.com/iliyamo/hall-pass/internal/repository"
	"github.com/iliyamo/hall-pass/internal/router"
	queue_publisher "github.com/iliyamo/hall-pass/internal/service"
	"github.com/iliyamo/hall-pass/internal/worker"
)

func main() {
	// Load .env when present; real deployments export variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("database migrate failed: %v", err)
	}

	// Repositories
	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	passes := repository.NewPassRepo(db)
	restrictions := repository.NewRestrictionRepo(db)

	// Pass lifecycle service with best-effort broker notifications.
	store := repository.NewPassStore(passes, restrictions, users)
	passService := pass.New(store, queue_publisher.BrokerEvents{})

	// Background sweep keeping the persisted pass state cache fresh.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.SweepInterval > 0 {
		go worker.NewSweeper(passService, cfg.SweepInterval).Run(ctx)
	}

	// Redis-backed rate limiter; degrades to a no-op when redis is down.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled")
	}
	ratelimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterUsers(e, handler.NewAuthHandler(cfg, users, sessions), handler.NewUserHandler(cfg, users), sessions, users, ratelimit)
	router.RegisterPasses(e, handler.NewPassHandler(passService), sessions, users, ratelimit)
	router.RegisterRestrictions(e, handler.NewRestrictionHandler(restrictions), sessions, users)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
