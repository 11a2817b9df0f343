package main

import (
	"context"

	"github.com/kataras/golog"
	"github.com/kataras/iris/v12"
	"github.com/streadway/amqp"

	"github.com/xor-shift/xsrng/common"
	"github.com/xor-shift/xsrng/config"
	"github.com/xor-shift/xsrng/dispense"
	"github.com/xor-shift/xsrng/store"
	"github.com/xor-shift/xsrng/util/rng"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		golog.Fatalf("loading config failed: %s", err)
	}

	cfg.ApplyLogLevel()

	var recorder dispense.SessionRecorder
	if cfg.DBName != "" {
		db, err := store.Open(cfg.MySQL())
		if err != nil {
			golog.Fatalf("opening the database failed: %s", err)
		}
		defer db.Close()

		if err = db.Migrate(context.Background()); err != nil {
			golog.Fatalf("migrating the database failed: %s", err)
		}

		recorder = db
	} else {
		golog.Warnf("DB_NAME is not set, sessions will not be recorded")
	}

	var amqpConn *amqp.Connection
	if cfg.AMQPURL != "" {
		if amqpConn, err = amqp.Dial(cfg.AMQPURL); err != nil {
			golog.Fatalf("failed to dial amqp: %s", err)
		}
		defer amqpConn.Close()
	}

	var publishers dispense.PublisherFactory
	if amqpConn != nil {
		publishers = func() (common.Publisher, error) {
			ch, err := amqpConn.Channel()
			if err != nil {
				return nil, err
			}

			if err = common.DeclareExchange(ch, cfg.AMQPExchange); err != nil {
				_ = ch.Close()
				return nil, err
			}

			return ch, nil
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rng.TickSeed()
	}

	d := dispense.NewDispenser(seed, cfg.DrawMaxCount, recorder, publishers, cfg.AMQPExchange)

	// record the first session as well so every published batch has a row
	if recorder != nil {
		if _, err = d.Reset(context.Background(), seed); err != nil {
			golog.Fatalf("recording the first session failed: %s", err)
		}
	}

	if amqpConn != nil {
		d.Start(cfg.DrawWorkers)
	} else {
		golog.Warnf("AMQP_URL is not set, queued draws are disabled and draws are not published")
		d.Stop()
	}
	defer d.Stop()

	app := newApp(d)

	if err := app.Listen(cfg.ListenAddr, iris.WithoutServerError(iris.ErrServerClosed)); err != nil {
		golog.Errorf("listen failed: %s", err)
	}
}
