// Package rabbitmq carries server push events over an AMQP topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/SoulMinT05/mtshop-frontend/push"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Subscriber implements push.Channel. Every subscription gets its own
// exclusive, auto-deleted queue bound to the exchange with the event name as
// routing key.
type Subscriber struct {
	pool   *ChannelPool
	logger *zap.Logger
}

func NewSubscriber(pool *ChannelPool, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{pool: pool, logger: logger}
}

func (s *Subscriber) Subscribe(ctx context.Context, event string, h push.Handler) (push.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch, err := s.pool.GetChannel()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel from pool: %w", err)
	}

	// One delivery at a time keeps handlers in publish order.
	if err := ch.Qos(1, 0, false); err != nil {
		s.discard(ch)
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		s.discard(ch)
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, event, s.pool.Exchange(), false, nil); err != nil {
		s.discard(ch)
		return nil, fmt.Errorf("failed to bind queue to %s: %w", event, err)
	}

	tag := consumerTag(event)
	msgs, err := ch.Consume(
		q.Name, // queue
		tag,    // consumer tag
		false,  // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		s.discard(ch)
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}

	sub := &subscription{
		pool:    s.pool,
		channel: ch,
		tag:     tag,
		done:    make(chan struct{}),
		logger:  s.logger.With(zap.String("event", event), zap.String("consumer_tag", tag)),
	}
	go sub.consume(msgs, h)

	sub.logger.Info("subscribed to push events", zap.String("queue", q.Name))
	return sub, nil
}

// discard closes a channel left in an unknown state and lets the pool
// replace it.
func (s *Subscriber) discard(ch Channel) {
	ch.Close()
	s.pool.ReturnChannel(ch)
}

func consumerTag(event string) string {
	return "storefront-" + event + "-" + uuid.NewString()
}

type subscription struct {
	pool    *ChannelPool
	channel Channel
	tag     string
	done    chan struct{}
	logger  *zap.Logger
	once    sync.Once
}

func (s *subscription) consume(msgs <-chan amqp.Delivery, h push.Handler) {
	defer close(s.done)
	for msg := range msgs {
		deliver(msg, h, s.logger)
	}
}

// delivery is what handle needs from an amqp.Delivery.
type delivery interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
	body() []byte
}

type amqpDelivery struct{ amqp.Delivery }

func (d amqpDelivery) body() []byte { return d.Body }

func deliver(msg amqp.Delivery, h push.Handler, logger *zap.Logger) {
	handle(amqpDelivery{msg}, h, logger)
}

func handle(d delivery, h push.Handler, logger *zap.Logger) {
	body := d.body()
	if !json.Valid(body) {
		logger.Warn("dropping malformed push event", zap.Int("bytes", len(body)))
		// Malformed, so never requeue.
		if err := d.Nack(false, false); err != nil {
			logger.Warn("failed to reject push event", zap.Error(err))
		}
		return
	}

	h(json.RawMessage(body))

	if err := d.Ack(false); err != nil {
		logger.Warn("failed to acknowledge push event", zap.Error(err))
	}
}

// Close cancels the consumer and waits for in-flight deliveries.
func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		if cerr := s.channel.Cancel(s.tag, false); cerr != nil {
			err = fmt.Errorf("failed to cancel consumer %s: %w", s.tag, cerr)
			s.channel.Close()
		}
		<-s.done
		s.pool.ReturnChannel(s.channel)
		s.logger.Info("push subscription closed")
	})
	return err
}
