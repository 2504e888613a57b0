package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/piresc/tirtha/internal/pkg/logger"
)

// StreamConfig describes a JetStream stream
type StreamConfig struct {
	Name      string
	Subjects  []string
	Retention jetstream.RetentionPolicy
	Storage   jetstream.StorageType
	Replicas  int
	MaxAge    time.Duration
	MaxBytes  int64
	MaxMsgs   int64
	Discard   jetstream.DiscardPolicy
}

// ConsumerConfig describes a durable JetStream consumer
type ConsumerConfig struct {
	StreamName    string
	ConsumerName  string
	FilterSubject string
	DeliverPolicy jetstream.DeliverPolicy
	AckPolicy     jetstream.AckPolicy
	AckWait       time.Duration
	MaxDeliver    int
	ReplayPolicy  jetstream.ReplayPolicy
	RateLimitBps  uint64
	MaxAckPending int
}

// PublishOptions controls a JetStream publish
type PublishOptions struct {
	Subject string
	Data    []byte
	MsgID   string
	Timeout time.Duration
}

// Client wraps a NATS connection with its JetStream context
type Client struct {
	conn *nats.Conn
	js   jetstream.JetStream

	mu        sync.Mutex
	consumers map[string]jetstream.Consumer
	consuming []jetstream.ConsumeContext
}

// NewClient connects to NATS and initialises JetStream
func NewClient(url string) (*Client, error) {
	conn, err := nats.Connect(url,
		nats.Name("tirtha-tracking"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", logger.Err(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", logger.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS server: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Client{
		conn:      conn,
		js:        js,
		consumers: make(map[string]jetstream.Consumer),
	}, nil
}

// GetConn returns the underlying NATS connection
func (c *Client) GetConn() *nats.Conn {
	return c.conn
}

// JetStream returns the JetStream context
func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

// CreateStream creates or updates a stream
func (c *Client) CreateStream(config StreamConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      config.Name,
		Subjects:  config.Subjects,
		Retention: config.Retention,
		Storage:   config.Storage,
		Replicas:  config.Replicas,
		MaxAge:    config.MaxAge,
		MaxBytes:  config.MaxBytes,
		MaxMsgs:   config.MaxMsgs,
		Discard:   config.Discard,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", config.Name, err)
	}

	logger.Info("JetStream stream ready",
		logger.String("stream", config.Name),
		logger.Strings("subjects", config.Subjects))
	return nil
}

// CreateConsumer creates or updates a durable consumer and caches it
func (c *Client) CreateConsumer(config ConsumerConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := c.js.Stream(ctx, config.StreamName)
	if err != nil {
		return fmt.Errorf("failed to get stream %s: %w", config.StreamName, err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       config.ConsumerName,
		FilterSubject: config.FilterSubject,
		DeliverPolicy: config.DeliverPolicy,
		AckPolicy:     config.AckPolicy,
		AckWait:       config.AckWait,
		MaxDeliver:    config.MaxDeliver,
		ReplayPolicy:  config.ReplayPolicy,
		RateLimit:     config.RateLimitBps,
		MaxAckPending: config.MaxAckPending,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", config.ConsumerName, err)
	}

	c.mu.Lock()
	c.consumers[consumerKey(config.StreamName, config.ConsumerName)] = consumer
	c.mu.Unlock()
	return nil
}

// ConsumeMessages starts push-style consumption for a previously created consumer.
// A nil handler result acks the message, a Permanent error terminates it and any
// other error naks it for redelivery.
func (c *Client) ConsumeMessages(streamName, consumerName string, handler JetStreamMessageHandler) error {
	c.mu.Lock()
	consumer, ok := c.consumers[consumerKey(streamName, consumerName)]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("consumer %s not found", consumerKey(streamName, consumerName))
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		settle(msg, handler(msg))
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.mu.Lock()
	c.consuming = append(c.consuming, consumeCtx)
	c.mu.Unlock()
	return nil
}

// Publish sends a core NATS message
func (c *Client) Publish(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// PublishJSON marshals v and sends it as a core NATS message
func (c *Client) PublishJSON(subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return c.Publish(subject, data)
}

// PublishWithOptions publishes to JetStream and waits for the stream ack
func (c *Client) PublishWithOptions(opts PublishOptions) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var pubOpts []jetstream.PublishOpt
	if opts.MsgID != "" {
		pubOpts = append(pubOpts, jetstream.WithMsgID(opts.MsgID))
	}

	if _, err := c.js.Publish(ctx, opts.Subject, opts.Data, pubOpts...); err != nil {
		return fmt.Errorf("failed to publish to JetStream: %w", err)
	}
	return nil
}

// Subscribe subscribes to a core NATS subject
func (c *Client) Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	sub, err := c.conn.Subscribe(subject, handler)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to subject: %w", err)
	}
	// Round-trip so the server has registered the interest before we return
	if err := c.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("failed to flush subscription: %w", err)
	}
	return sub, nil
}

// IsConnected reports whether the connection is currently usable
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close stops all consumers and drains the connection
func (c *Client) Close() {
	c.mu.Lock()
	for _, cc := range c.consuming {
		cc.Stop()
	}
	c.consuming = nil
	c.mu.Unlock()

	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.conn.Close()
		}
	}
}

func consumerKey(stream, consumer string) string {
	return fmt.Sprintf("%s:%s", stream, consumer)
}
