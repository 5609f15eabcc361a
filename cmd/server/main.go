package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-booking/internal/config"
	"github.com/iliyamo/ticket-booking/internal/database"
	"github.com/iliyamo/ticket-booking/internal/handler"
	"github.com/iliyamo/ticket-booking/internal/middleware"
	"github.com/iliyamo/ticket-booking/internal/queue"
	"github.com/iliyamo/ticket-booking/internal/repository"
	"github.com/iliyamo/ticket-booking/internal/router"
	"github.com/iliyamo/ticket-booking/internal/service/queue_publisher"
	"github.com/iliyamo/ticket-booking/internal/service/reservation"
	"github.com/iliyamo/ticket-booking/internal/service/stats"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs rate limiting and the response cache.  A nil client
	// disables both; the API keeps serving without them.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	events := repository.NewEventRepo(db)
	seats := repository.NewSeatRepo(db)
	guests := repository.NewGuestRepo(db)
	tickets := repository.NewTicketRepo(db)
	refunds := repository.NewRefundRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	counts := repository.NewStatsRepo(db)

	engine := reservation.New(events, seats, guests, tickets, refunds)
	reader := stats.NewReader(events, counts)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	eventH := handler.NewEventHandler(events, seats)
	ticketH := handler.NewTicketHandler(engine, queue_publisher.PublishTicketReserved)
	adminH := handler.NewAdminHandler(reader, tickets, refunds)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, eventH, ticketH, cache)
	router.RegisterUser(e, ticketH, cfg.JWTSecret)
	router.RegisterAdmin(e, eventH, ticketH, adminH, cfg.JWTSecret)

	// The consumer drains ticket.reserved into logs/ticket.log.  It runs
	// its own reconnect loop, so a broker outage never blocks startup.
	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
