package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kataras/golog"

	"github.com/xor-shift/xsrng/common"
	"github.com/xor-shift/xsrng/config"
	"github.com/xor-shift/xsrng/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		golog.Fatalf("loading config failed: %s", err)
	}

	cfg.ApplyLogLevel()

	db, err := store.Open(cfg.MySQL())
	if err != nil {
		golog.Fatalf("opening the database failed: %s", err)
	}
	defer db.Close()

	if err = db.Migrate(context.Background()); err != nil {
		golog.Fatalf("migrating the database failed: %s", err)
	}

	consumer, err := common.NewAMQPConsumer(
		cfg.AMQPURL,
		cfg.AMQPExchange,
		"draw_batch_queue_db",
		"consumer_db_consumer",
		func(batch common.DrawBatch) error {
			return db.InsertBatches(context.TODO(), batch)
		})
	if err != nil {
		golog.Fatalf("creating the amqp consumer failed: %s", err)
	}
	defer consumer.Close()

	if err = consumer.Start(); err != nil {
		golog.Fatalf("starting the amqp consumer failed: %s", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	golog.Infof("shutting down")

	if err = consumer.Stop(); err != nil {
		golog.Errorf("stopping the consumer failed: %s", err)
	}
	consumer.Wait()
}
