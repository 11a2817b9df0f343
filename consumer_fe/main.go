package main

import (
	"fmt"

	"github.com/kataras/golog"
	"github.com/kataras/iris/v12"

	"github.com/xor-shift/xsrng/common"
	"github.com/xor-shift/xsrng/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		golog.Fatalf("loading config failed: %s", err)
	}

	cfg.ApplyLogLevel()

	monitor := newMonitor()

	consumer, err := common.NewAMQPConsumer(
		cfg.AMQPURL,
		cfg.AMQPExchange,
		"draw_batch_queue_fe",
		"consumer_fe_consumer",
		monitor.Observe)
	if err != nil {
		golog.Fatalf("creating the amqp consumer failed: %s", err)
	}
	defer consumer.Close()

	if err = consumer.Start(); err != nil {
		golog.Fatalf("starting the amqp consumer failed: %s", err)
	}

	app := newApp(monitor)

	if err = app.Listen(fmt.Sprintf(":%s", cfg.ConsumerFEPort), iris.WithoutServerError(iris.ErrServerClosed)); err != nil {
		golog.Errorf("listen failed: %s", err)
	}
}
