package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/concert-seat-reservation/internal/clock"
	"github.com/iliyamo/concert-seat-reservation/internal/config"
	"github.com/iliyamo/concert-seat-reservation/internal/database"
	"github.com/iliyamo/concert-seat-reservation/internal/handler"
	"github.com/iliyamo/concert-seat-reservation/internal/layout"
	"github.com/iliyamo/concert-seat-reservation/internal/logging"
	"github.com/iliyamo/concert-seat-reservation/internal/middleware"
	"github.com/iliyamo/concert-seat-reservation/internal/queue"
	"github.com/iliyamo/concert-seat-reservation/internal/repository"
	"github.com/iliyamo/concert-seat-reservation/internal/reservation"
	"github.com/iliyamo/concert-seat-reservation/internal/router"
	"github.com/iliyamo/concert-seat-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("bye")
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	db, err := database.Open(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn("redis unavailable, response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	venue, err := layout.Load(cfg.Reservation.LayoutFile)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"venue": venue.Name(), "capacity": venue.Capacity()}).Info("venue layout loaded")

	clk := clock.Real{}
	concerts := repository.NewConcertRepo(db)
	bookings := repository.NewBookingRepo(db)
	identity := service.NewIdentityService(repository.NewUserRepo(db), cfg.JWTSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute, cfg.BcryptCost, clk)
	payments := service.NewPaymentService(repository.NewCreditCardRepo(db), clk)

	opts := []reservation.Option{
		reservation.WithHoldTTL(cfg.Reservation.HoldTTL),
		reservation.WithMaxClaimAttempts(cfg.Reservation.MaxClaimAttempts),
		reservation.WithCollaboratorTimeout(cfg.Reservation.CollaboratorTimeout),
		reservation.WithLogger(log),
	}

	var workers []func(context.Context) error
	if cfg.Broker.URL != "" {
		pub := queue.NewPublisher(cfg.Broker.URL, cfg.Broker.Queue)
		defer pub.Close()
		notifier := service.NewBookingNotifier(pub, concerts, cfg.Broker.NotifyBuffer, log)
		opts = append(opts, reservation.WithNotifier(notifier))
		consumer := queue.NewConsumer(cfg.Broker.URL, cfg.Broker.Queue, cfg.Broker.FeedFile, log)
		workers = append(workers, notifier.Run, consumer.Run)
	} else {
		log.Info("no broker configured, booking notifications disabled")
	}

	inv := reservation.NewInventory(venue)
	ledger := reservation.NewLedger(clk)
	engine := reservation.NewManager(inv, ledger, concerts, payments, bookings, opts...)
	reaper := reservation.NewReaper(inv, ledger, clk, cfg.Reservation.ReaperInterval, cfg.Reservation.TombstoneRetention, log)

	e := newServer(cfg, log, rdb, db, identity, payments, concerts, venue, engine)
	addr := ":" + cfg.Port
	workers = append(workers, reaper.Run, httpWorker(e, addr))

	restore := func(ctx context.Context) error {
		_, err := engine.Restore(ctx)
		return err
	}
	log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("starting")
	return serve(ctx, restore, workers...)
}

// serve runs restore to completion and only then starts every worker under
// one errgroup.  It returns when all workers have stopped.
func serve(ctx context.Context, restore func(context.Context) error, workers ...func(context.Context) error) error {
	if err := restore(ctx); err != nil {
		return fmt.Errorf("restore bookings: %w", err)
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		w := w
		g.Go(func() error { return w(ctx) })
	}
	return g.Wait()
}

// httpWorker serves e on addr until ctx is done, then shuts it down.
func httpWorker(e *echo.Echo, addr string) func(context.Context) error {
	return func(ctx context.Context) error {
		errc := make(chan error, 1)
		go func() { errc <- e.Start(addr) }()

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}

func newServer(
	cfg config.Config,
	log *logrus.Logger,
	rdb *redis.Client,
	db handler.Pinger,
	identity *service.IdentityService,
	payments *service.PaymentService,
	concerts *repository.ConcertRepo,
	venue *layout.Index,
	engine *reservation.Manager,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(log))

	deps := map[string]handler.Pinger{"mysql": db}
	if rdb != nil {
		deps["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	router.RegisterRoutes(e, deps)
	router.RegisterAuth(e, handler.NewAuthHandler(identity))
	router.RegisterPublic(e, handler.NewCatalogHandler(concerts, venue, engine),
		middleware.NewRedisCache(cfg.Cache, rdb, log))
	router.RegisterCustomer(e, identity,
		handler.NewReservationHandler(engine),
		handler.NewPaymentHandler(payments),
		middleware.NewTokenBucket(cfg.RateLimit, rdb, log))
	return e
}
