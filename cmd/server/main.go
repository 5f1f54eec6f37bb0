package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sport-event-booking/internal/config"
	"github.com/iliyamo/sport-event-booking/internal/database"
	"github.com/iliyamo/sport-event-booking/internal/handler"
	"github.com/iliyamo/sport-event-booking/internal/logger"
	"github.com/iliyamo/sport-event-booking/internal/middleware"
	"github.com/iliyamo/sport-event-booking/internal/queue"
	"github.com/iliyamo/sport-event-booking/internal/repository"
	"github.com/iliyamo/sport-event-booking/internal/router"
	"github.com/iliyamo/sport-event-booking/internal/session"
	"github.com/iliyamo/sport-event-booking/internal/token"
)

func main() {
	_ = godotenv.Load() // optional .env for local development

	cfg := config.Load()
	zlog := logger.New()
	defer func() { _ = zlog.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; limiter and cache degrade to pass-through

	sessions := session.NewStore(cfg.SessionTTL, token.VaultPolicy{
		TTL:           cfg.RefTokenTTL,
		RejectExpired: cfg.RefTokenRejectExpired,
		FallbackScan:  cfg.RefTokenFallbackScan,
	}, cfg.CSRFTTL)
	janitorStop := make(chan struct{})
	defer close(janitorStop)
	sessions.StartJanitor(0, janitorStop)

	users := repository.NewUserRepo(db)
	events := repository.NewEventRepo(db)
	reservations := repository.NewReservationRepo(db, cfg.CapacityEnforced)
	notifications := repository.NewNotificationRepo(db)
	catalog := repository.NewCatalogRepo(db)
	feedback := repository.NewFeedbackRepo(db)

	authH := handler.NewAuthHandler(cfg, users, sessions, zlog)
	browseH := handler.NewBrowseHandler(events, catalog, zlog)
	eventH := handler.NewEventHandler(events, reservations, users, catalog, zlog)
	resH := handler.NewReservationHandler(reservations, zlog)
	notifH := handler.NewNotificationHandler(notifications, feedback, zlog)
	adminH := handler.NewAdminHandler(events, users, feedback, eventH, zlog)

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.SessionLoader(sessions, cfg.SessionSecret, cfg.SessionTTL))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, limit)
	router.RegisterBrowse(e, browseH, cache)
	router.RegisterMember(e, eventH, resH, notifH, limit)
	router.RegisterAdmin(e, adminH)

	go queue.StartLifecycleConsumer(notifications, zlog)

	addr := ":" + cfg.Port
	zlog.Infow("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
