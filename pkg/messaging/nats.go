package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// NATSClient publishes and consumes service events over JetStream.
type NATSClient struct {
	conn      *nats.Conn
	jetStream jetstream.JetStream
	stream    string
	ctx       context.Context
	cancel    context.CancelFunc
	consumers map[string]jetstream.ConsumeContext
	mu        sync.Mutex
	log       zerolog.Logger
}

// MessageHandler processes one message body. A returned error naks it.
type MessageHandler func(subject string, data []byte) error

// NewNATSClient connects to url and makes sure the event stream exists.
func NewNATSClient(url, name, stream string, log zerolog.Logger) (*NATSClient, error) {
	log = log.With().Str("component", "nats").Logger()

	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &NATSClient{
		conn:      nc,
		jetStream: js,
		stream:    stream,
		ctx:       ctx,
		cancel:    cancel,
		consumers: make(map[string]jetstream.ConsumeContext),
		log:       log,
	}

	if err := client.setupStream(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (c *NATSClient) setupStream() error {
	cfg := jetstream.StreamConfig{
		Name:        c.stream,
		Subjects:    []string{SubjectAll},
		Description: "sodium intake meal and alert events",
		Retention:   jetstream.LimitsPolicy,
		MaxMsgs:     100000,
		MaxBytes:    100 * 1024 * 1024,
		MaxAge:      7 * 24 * time.Hour,
	}
	if _, err := c.jetStream.CreateOrUpdateStream(c.ctx, cfg); err != nil {
		return fmt.Errorf("failed to set up stream %s: %w", c.stream, err)
	}
	c.log.Info().Str("stream", c.stream).Msg("stream ready")
	return nil
}

// Publish sends data to subject. Byte slices and strings are sent as is;
// anything else is JSON encoded.
func (c *NATSClient) Publish(subject string, data interface{}) error {
	payload, err := encode(data)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()
	if _, err := c.jetStream.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	c.log.Debug().Str("subject", subject).Int("bytes", len(payload)).Msg("event published")
	return nil
}

func encode(data interface{}) ([]byte, error) {
	switch v := data.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event: %w", err)
		}
		return payload, nil
	}
}

// Subscribe attaches a durable consumer on filterSubject that hands every
// message published from now on to handler.
func (c *NATSClient) Subscribe(consumerName, filterSubject string, handler MessageHandler) error {
	consumer, err := c.jetStream.CreateOrUpdateConsumer(c.ctx, c.stream, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		FilterSubject: filterSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", consumerName, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(msg.Subject(), msg.Data()); err != nil {
			c.log.Warn().Err(err).Str("consumer", consumerName).Msg("handler failed")
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consumer %s: %w", consumerName, err)
	}

	c.mu.Lock()
	c.consumers[consumerName] = cc
	c.mu.Unlock()
	return nil
}

// Close stops consumers and drains the connection.
func (c *NATSClient) Close() error {
	c.cancel()

	c.mu.Lock()
	for name, cc := range c.consumers {
		cc.Stop()
		delete(c.consumers, name)
	}
	c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

// IsConnected reports the connection state for health checks.
func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}
