package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/filmfest/catalogue-api/internal/config"
	"github.com/filmfest/catalogue-api/internal/database"
	"github.com/filmfest/catalogue-api/internal/handler"
	"github.com/filmfest/catalogue-api/internal/logger"
	"github.com/filmfest/catalogue-api/internal/middleware"
	"github.com/filmfest/catalogue-api/internal/queue"
	"github.com/filmfest/catalogue-api/internal/repository"
	"github.com/filmfest/catalogue-api/internal/router"
	"github.com/filmfest/catalogue-api/internal/storage"
	"github.com/filmfest/catalogue-api/internal/validate"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env always wins

	cfg := config.Load()
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("logger init: %v", err)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Log.Fatalw("database connect failed", "err", err)
	}
	defer db.Close()

	images, err := storage.New(cfg.ImageDir)
	if err != nil {
		logger.Log.Fatalw("image store init failed", "dir", cfg.ImageDir, "err", err)
	}

	users := &repository.UserRepo{DB: db}
	films := &repository.FilmRepo{DB: db}
	genres := &repository.GenreRepo{DB: db}
	reviews := &repository.ReviewRepo{DB: db}

	janitor := queue.NewPublisher(cfg.AMQPURL)
	if cfg.AMQPURL != "" {
		go queue.StartJanitor(cfg.AMQPURL, images)
	}

	uh := handler.NewUserHandler(cfg, users, images, janitor)
	fh := handler.NewFilmHandler(cfg, users, films, genres, reviews, images, janitor)
	rh := handler.NewReviewHandler(users, films, reviews)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validate.New()

	rdb := config.NewRedisClient()
	e.Use(middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	router.Register(e, uh, fh, rh, cache)

	addr := ":" + cfg.Port
	logger.Log.Infow("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		logger.Log.Fatalw("server stopped", "err", err)
	}
}
