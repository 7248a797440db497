package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Artem9968/shareit/internal/config"
	"github.com/Artem9968/shareit/internal/database"
	"github.com/Artem9968/shareit/internal/handler"
	"github.com/Artem9968/shareit/internal/logger"
	"github.com/Artem9968/shareit/internal/middleware"
	"github.com/Artem9968/shareit/internal/queue"
	"github.com/Artem9968/shareit/internal/repository"
	"github.com/Artem9968/shareit/internal/repository/memory"
	"github.com/Artem9968/shareit/internal/router"
	"github.com/Artem9968/shareit/internal/service"
)

// stores bundles one storage backend.
type stores struct {
	bookings service.BookingStore
	users    service.UserStore
	items    service.ItemStore
	comments service.CommentStore
	requests service.RequestStore
	ping     func(context.Context) error
	close    func() error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		return &stores{
			bookings: memory.NewBookingRepo(),
			users:    memory.NewUserRepo(),
			items:    memory.NewItemRepo(),
			comments: memory.NewCommentRepo(),
			requests: memory.NewRequestRepo(),
			close:    func() error { return nil },
		}, nil
	}
	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	x := sqlx.NewDb(db, "mysql")
	return &stores{
		bookings: repository.NewBookingRepo(db),
		users:    repository.NewUserRepo(x),
		items:    repository.NewItemRepo(x),
		comments: repository.NewCommentRepo(x),
		requests: repository.NewRequestRepo(x),
		ping:     db.PingContext,
		close:    db.Close,
	}, nil
}

func main() {
	cfg, err := config.LoadWithFile(".env")
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("open storage")
	}
	defer func() { _ = st.close() }()

	var events service.EventPublisher = queue.NopPublisher{}
	if cfg.Events.Enabled {
		pub := queue.NewPublisher(cfg.Events.RabbitMQURL, cfg.Events.Queue)
		defer func() { _ = pub.Close() }()
		events = pub
		journal := logger.NewJournal(cfg.Events.JournalFile)
		go func() {
			if err := queue.StartBookingConsumer(ctx, cfg.Events.RabbitMQURL, cfg.Events.Queue, journal); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("booking consumer stopped")
			}
		}()
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.WithField("addr", cfg.Redis.Addr).Warn("redis unavailable, rate limiting and cache disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	bookings := service.NewBookingService(st.bookings, st.users, st.items, events, log)
	users := service.NewUserService(st.users, st.items, st.bookings, st.requests)
	items := service.NewItemService(st.items, st.users, st.bookings, st.comments, st.requests)
	requests := service.NewRequestService(st.requests, st.users, st.items)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())

	opts := router.Options{
		JWTSecret: cfg.Auth.Secret,
		RateLimit: middleware.NewTokenBucket(cfg.RateLimit, rdb, log),
		Cache:     middleware.NewRedisCache(cfg.Cache, rdb),
	}
	router.RegisterRoutes(e, st.ping)
	router.RegisterUsers(e, handler.NewUserHandler(users, log))
	router.RegisterItems(e, handler.NewItemHandler(items, log), opts)
	router.RegisterRequests(e, handler.NewRequestHandler(requests, log), opts)
	router.RegisterBookings(e, handler.NewBookingHandler(bookings, st.users, st.items, log), opts)

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "storage": cfg.Storage}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
