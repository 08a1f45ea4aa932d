package rabbitmq

import (
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var (
	ErrPoolExhausted = errors.New("no channels available in pool")
	ErrPoolClosed    = errors.New("channel pool closed")
)

// Channel is the part of *amqp.Channel the pool and subscriber use.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
	IsClosed() bool
	Close() error
}

type connection interface {
	Channel() (Channel, error)
	Close() error
}

type amqpConnection struct {
	conn *amqp.Connection
}

func (c amqpConnection) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (c amqpConnection) Close() error { return c.conn.Close() }

// ChannelPool shares one AMQP connection between a fixed number of channels,
// each of which has declared the event exchange.
type ChannelPool struct {
	conn     connection
	channels chan Channel
	mu       sync.Mutex
	closed   bool
	size     int
	exchange string
	logger   *zap.Logger
}

// NewChannelPool creates a new channel pool
func NewChannelPool(rabbitmqURL, exchange string, size int, logger *zap.Logger) (*ChannelPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("channel pool size must be positive, got %d", size)
	}

	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return newChannelPool(amqpConnection{conn: conn}, exchange, size, logger)
}

func newChannelPool(conn connection, exchange string, size int, logger *zap.Logger) (*ChannelPool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pool := &ChannelPool{
		conn:     conn,
		channels: make(chan Channel, size),
		size:     size,
		exchange: exchange,
		logger:   logger,
	}

	for i := 0; i < size; i++ {
		ch, err := pool.createChannel()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create channel %d: %w", i, err)
		}
		pool.channels <- ch
	}

	logger.Info("created RabbitMQ channel pool", zap.Int("size", size), zap.String("exchange", exchange))
	return pool, nil
}

func (p *ChannelPool) Exchange() string { return p.exchange }

// createChannel creates and configures a new channel
func (p *ChannelPool) createChannel() (Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}

	// Idempotent.
	err = ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return ch, nil
}

// GetChannel retrieves a channel from the pool, replacing it if the broker
// closed it.
func (p *ChannelPool) GetChannel() (Channel, error) {
	select {
	case ch, ok := <-p.channels:
		if !ok {
			return nil, ErrPoolClosed
		}
		if ch.IsClosed() {
			return p.createChannel()
		}
		return ch, nil
	default:
		return nil, ErrPoolExhausted
	}
}

// ReturnChannel gives a channel back to the pool. A channel closed while it
// was out is replaced so the pool keeps its size.
func (p *ChannelPool) ReturnChannel(ch Channel) {
	if ch == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		if !ch.IsClosed() {
			ch.Close()
		}
		return
	}

	if ch.IsClosed() {
		fresh, err := p.createChannel()
		if err != nil {
			p.logger.Warn("failed to replace closed channel", zap.Error(err))
			return
		}
		ch = fresh
	}

	select {
	case p.channels <- ch:
	default:
		ch.Close()
	}
}

// Available reports how many idle channels the pool holds.
func (p *ChannelPool) Available() int {
	return len(p.channels)
}

// Close closes all channels and the connection
func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	close(p.channels)
	for ch := range p.channels {
		ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.logger.Info("closed RabbitMQ channel pool")
}
