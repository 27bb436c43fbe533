// Command seed adds a concert and its performance date-times to the
// catalog database.
//
//	seed --title "Night Music" --at 2030-06-01T19:30:00Z --at 2030-06-02T19:30:00Z
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/iliyamo/concert-seat-reservation/internal/config"
	"github.com/iliyamo/concert-seat-reservation/internal/database"
	"github.com/iliyamo/concert-seat-reservation/internal/logging"
	"github.com/iliyamo/concert-seat-reservation/internal/model"
	"github.com/iliyamo/concert-seat-reservation/internal/repository"
)

// ConcertCreator stores a concert together with its performances.
type ConcertCreator interface {
	Create(ctx context.Context, c *model.Concert, dates ...time.Time) error
}

// openFunc connects to the catalog store.  The returned func releases it.
type openFunc func(ctx context.Context, log logrus.FieldLogger) (ConcertCreator, func(), error)

func newApp(open openFunc, log logrus.FieldLogger) *cli.App {
	return &cli.App{
		Name:  "seed",
		Usage: "add a concert and its performances to the catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "concert title", Required: true},
			&cli.StringSliceFlag{Name: "at", Usage: "performance date-time in RFC 3339, repeatable", Required: true},
		},
		Action: func(c *cli.Context) error {
			title := strings.TrimSpace(c.String("title"))
			if title == "" {
				return cli.Exit("--title must not be blank", 2)
			}
			dates, err := parseDates(c.StringSlice("at"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
			defer cancel()
			store, closeStore, err := open(ctx, log)
			if err != nil {
				return err
			}
			defer closeStore()

			concert := model.Concert{Title: title}
			if err := store.Create(ctx, &concert, dates...); err != nil {
				return fmt.Errorf("create concert: %w", err)
			}
			log.WithFields(logrus.Fields{
				"concert_id":   concert.ID,
				"title":        concert.Title,
				"performances": len(dates),
			}).Info("concert created")
			return nil
		},
	}
}

func parseDates(raw []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("--at %q is not RFC 3339", s)
		}
		dates = append(dates, t.UTC())
	}
	return dates, nil
}

func openMySQL(ctx context.Context, log logrus.FieldLogger) (ConcertCreator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return repository.NewConcertRepo(db), func() { _ = db.Close() }, nil
}

func main() {
	_ = godotenv.Load()
	log := logging.Init(config.LoadLogConfig())

	if err := newApp(openMySQL, log).Run(os.Args); err != nil {
		log.WithError(err).Fatal("seed failed")
	}
}
