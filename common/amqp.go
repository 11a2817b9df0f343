package common

import (
	"sync"

	"github.com/kataras/golog"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

// Publisher is the part of *amqp.Channel the draw pipeline publishes through.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// DeclareExchange declares the fanout exchange batches are published to.
func DeclareExchange(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
}

// PublishBatch gob-encodes batch and publishes it to exchange.
func PublishBatch(pub Publisher, exchange string, batch DrawBatch) error {
	body, err := EncodeBatch(batch)
	if err != nil {
		return errors.Wrap(err, "encoding batch")
	}

	return pub.Publish(
		exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/octet-stream",
			Body:        body,
		})
}

type AMQPConsumer struct {
	amqpConn  *amqp.Connection
	amqpChan  *amqp.Channel
	amqpQueue amqp.Queue

	queueName    string
	consumerName string

	amqpConsumer <-chan amqp.Delivery
	callback     func(DrawBatch) error
	wg           sync.WaitGroup
}

// NewAMQPConsumer binds an exclusive queue to exchange. callback runs once per
// decoded batch; deliveries that fail to decode are logged and dropped.
func NewAMQPConsumer(url, exchange, queueName, consumerName string, callback func(DrawBatch) error) (*AMQPConsumer, error) {
	var err error
	consumer := AMQPConsumer{
		callback: callback,

		queueName:    queueName,
		consumerName: consumerName,
	}

	if consumer.amqpConn, err = amqp.Dial(url); err != nil {
		return nil, errors.Wrap(err, "dialing amqp")
	}

	if consumer.amqpChan, err = consumer.amqpConn.Channel(); err != nil {
		_ = consumer.amqpConn.Close()
		return nil, errors.Wrap(err, "opening amqp channel")
	}

	if err = DeclareExchange(consumer.amqpChan, exchange); err != nil {
		_ = consumer.Close()
		return nil, errors.Wrap(err, "declaring exchange")
	}

	if consumer.amqpQueue, err = consumer.amqpChan.QueueDeclare(
		queueName, // name
		false,     // durable
		false,     // delete when unused
		true,      // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		_ = consumer.Close()
		return nil, errors.Wrap(err, "declaring queue")
	}

	if err = consumer.amqpChan.QueueBind(
		consumer.amqpQueue.Name, // queue name
		"",                      // routing key
		exchange,                // exchange
		false,
		nil,
	); err != nil {
		_ = consumer.Close()
		return nil, errors.Wrap(err, "binding queue")
	}

	return &consumer, nil
}

func (c *AMQPConsumer) Start() error {
	var err error

	if c.amqpConsumer, err = c.amqpChan.Consume(
		c.amqpQueue.Name, // queue
		c.consumerName,   // consumer
		true,             // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // args
	); err != nil {
		return err
	}

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		for delivery := range c.amqpConsumer {
			HandleDelivery(delivery.Body, c.callback)
		}
	}()

	return nil
}

// HandleDelivery decodes one delivery body and hands it to callback.
func HandleDelivery(body []byte, callback func(DrawBatch) error) {
	batch, err := DecodeBatch(body)
	if err != nil {
		golog.Warnf("error decoding a batch with gob: %s", err)
		return
	}

	if err = callback(batch); err != nil {
		golog.Errorf("error handling batch %d of session %d: %s", batch.Order, batch.SessionID, err)
	}
}

func (c *AMQPConsumer) Stop() error {
	return c.amqpChan.Cancel(c.consumerName, false)
}

func (c *AMQPConsumer) Wait() {
	c.wg.Wait()
}

func (c *AMQPConsumer) Close() error {
	if err := c.amqpChan.Close(); err != nil {
		return err
	}

	return c.amqpConn.Close()
}
