package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/dmarcu/contacts-api/internal/config"
	"github.com/dmarcu/contacts-api/internal/database"
	"github.com/dmarcu/contacts-api/internal/handler"
	"github.com/dmarcu/contacts-api/internal/mailer"
	"github.com/dmarcu/contacts-api/internal/queue"
	"github.com/dmarcu/contacts-api/internal/repository"
	"github.com/dmarcu/contacts-api/internal/router"
	"github.com/dmarcu/contacts-api/internal/storage"
)

func main() {
	// .env is optional; real deployments configure the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal(err)
	}

	rdb := config.NewRedisClient() // may be nil; caching degrades to no-op
	if rdb == nil {
		log.Println("redis unavailable, contact response cache disabled")
	}

	avatars, err := storage.NewAvatarStore(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}

	users := repository.NewUserRepo(db)
	contacts := repository.NewContactRepo(db)

	e := echo.New()
	router.RegisterRoutes(e, router.Deps{
		Cfg:      cfg,
		Cache:    config.LoadCacheConfig(),
		Auth:     handler.NewAuthHandler(cfg, users, queue.NewPublisher(), avatars),
		Contacts: handler.NewContactHandler(contacts),
		Users:    users,
		Redis:    rdb,
	})

	// The consumer delivers queued verification mail in the background and
	// survives broker restarts on its own.
	go func() {
		if err := queue.StartEmailConsumer(mailer.New(cfg)); err != nil {
			log.Printf("email consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
