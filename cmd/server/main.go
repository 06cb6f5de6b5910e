package main // Entry point package

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/barwethereyet/checkin-api/internal/config"
	"github.com/barwethereyet/checkin-api/internal/crowd"
	"github.com/barwethereyet/checkin-api/internal/database"
	"github.com/barwethereyet/checkin-api/internal/handler"
	"github.com/barwethereyet/checkin-api/internal/middleware"
	"github.com/barwethereyet/checkin-api/internal/queue"
	"github.com/barwethereyet/checkin-api/internal/repository"
	"github.com/barwethereyet/checkin-api/internal/reward"
	"github.com/barwethereyet/checkin-api/internal/router"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis backs the count cache, crowd pub/sub, rate limiting and
	// response caching.  A nil client degrades all four gracefully.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// Repositories
	venueRepo := repository.NewVenueRepo(db)
	checkinRepo := repository.NewCheckinRepo(db)
	rewardRepo := repository.NewRewardRepo(db)
	userRewardRepo := repository.NewUserRewardRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	statsRepo := repository.NewStatsRepo(db)

	// Domain services
	agg := crowd.NewAggregator(checkinRepo, rdb)
	progression := reward.NewProgression(rewardRepo, userRewardRepo, userRepo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The sweeper flips expired check-ins' cached flag and pushes the
	// resulting -n crowd deltas.
	sweeper := crowd.NewSweeper(checkinRepo, agg, cfg.SweepInterval)
	go sweeper.Run(ctx)

	// Audit-log consumer for accepted check-ins.  Runs with its own
	// reconnect loop; a missing broker only costs the audit trail.
	go func() {
		if err := queue.StartCheckinConsumer(); err != nil {
			log.Printf("queue: checkin consumer stopped: %v", err)
		}
	}()

	// Handlers
	authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	checkinH := handler.NewCheckinHandler(venueRepo, checkinRepo, agg, progression)
	redeemH := handler.NewRedeemHandler(userRewardRepo)
	venueH := handler.NewVenueHandler(venueRepo, checkinRepo, statsRepo, agg)
	rewardH := handler.NewRewardHandler(venueRepo, rewardRepo, userRewardRepo)
	historyH := handler.NewHistoryHandler(checkinRepo)

	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cacheCfg := config.LoadCacheConfig()
	cacheMW := middleware.NewResponseCache(cacheCfg, rdb, cacheCfg.TTL)
	crowdCacheMW := middleware.NewResponseCache(cacheCfg, rdb, cacheCfg.CrowdTTL)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, venueH, rewardH, cfg.JWTSecret, cacheMW, crowdCacheMW)
	router.RegisterUser(e, checkinH, redeemH, rewardH, historyH, cfg.JWTSecret, rateMW)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		<-ctx.Done()
		log.Println("shutting down")
		_ = e.Shutdown(context.Background())
	}()

	if err := e.Start(addr); err != nil {
		log.Println(err)
	}
}
