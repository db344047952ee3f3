// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/placefeed/internal/breaker"
	"github.com/tomtom215/placefeed/internal/logging"
	"github.com/tomtom215/placefeed/internal/metrics"
)

// Config configures the publisher transport.
type Config struct {
	// NATSURL selects NATS JetStream. Empty uses the in-process GoChannel.
	NATSURL         string
	TopicPrefix     string
	TrackMsgID      bool
	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int

	// BufferSize is the GoChannel output buffer per subscriber.
	BufferSize int64

	Breaker breaker.Config
}

// DefaultConfig returns the in-process configuration.
func DefaultConfig() Config {
	return Config{
		TopicPrefix:     "placefeed",
		TrackMsgID:      true,
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 8 * 1024 * 1024,
		BufferSize:      256,
		Breaker: breaker.Config{
			Name:             "events",
			MaxRequests:      3,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			CallTimeout:      5 * time.Second,
		},
	}
}

// Publisher wraps a Watermill publisher with a circuit breaker, topic
// prefixing and event serialization.
type Publisher struct {
	publisher message.Publisher
	local     *gochannel.GoChannel
	breaker   *breaker.Breaker
	prefix    string
	trackID   bool
	logger    zerolog.Logger
	now       func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewPublisher creates a publisher for cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPublisher(cfg Config, logger zerolog.Logger) (*Publisher, error) {
	logger = logger.With().Str("component", "events").Logger()
	wmLogger := logging.NewWatermillAdapter(logger)

	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "events"
	}
	p := &Publisher{
		breaker: breaker.New(cfg.Breaker),
		prefix:  cfg.TopicPrefix,
		trackID: cfg.TrackMsgID,
		logger:  logger,
		now:     time.Now,
	}

	if cfg.NATSURL == "" {
		p.local = gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.BufferSize,
		}, wmLogger)
		p.publisher = p.local
		logger.Info().Str("transport", "gochannel").Msg("Event publisher ready")
		return p, nil
	}

	pub, err := newNATSPublisher(cfg, wmLogger)
	if err != nil {
		return nil, err
	}
	p.publisher = pub
	logger.Info().Str("transport", "nats").Str("url", cfg.NATSURL).Msg("Event publisher ready")
	return p, nil
}

func newNATSPublisher(cfg Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    cfg.TrackMsgID,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	return pub, nil
}

// Publish sends msg to topic through the breaker.
func (p *Publisher) Publish(ctx context.Context, topic string, msg *message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	if p.trackID && msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}

	_, err := breaker.Do(ctx, p.breaker, "publish", func(ctx context.Context) (struct{}, error) {
		msg.SetContext(ctx)
		return struct{}{}, p.publisher.Publish(topic, msg)
	})
	metrics.RecordEventPublished(topic, err)
	return err
}

// PublishEvent serializes event and publishes it on its topic.
func (p *Publisher) PublishEvent(ctx context.Context, event *Event) error {
	data, err := SerializeEvent(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(event.EventID, data)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("viewer_id", event.ViewerID)

	if err := p.Publish(ctx, Topic(p.prefix, event.Type), msg); err != nil {
		p.logger.Warn().Err(err).Str("event_type", string(event.Type)).
			Str("viewer_id", event.ViewerID).Msg("Event publish failed")
		return err
	}
	return nil
}

// Emit publishes an interaction event for viewerID and activityID.
func (p *Publisher) Emit(ctx context.Context, t EventType, viewerID, activityID string) error {
	return p.PublishEvent(ctx, NewEvent(t, viewerID, activityID, p.now()))
}

// InvalidateFeed announces that viewerID's feed was refreshed.
func (p *Publisher) InvalidateFeed(ctx context.Context, viewerID string) error {
	return p.Emit(ctx, EventFeedRefreshed, viewerID, "")
}

// Subscribe returns the in-process message stream for t. Each message must
// be acked before the next one is delivered.
func (p *Publisher) Subscribe(ctx context.Context, t EventType) (<-chan *message.Message, error) {
	if p.local == nil {
		return nil, ErrSubscribeUnsupported
	}
	return p.local.Subscribe(ctx, Topic(p.prefix, t))
}

// Close shuts down the underlying transport. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}

// Breaker exposes the publish breaker for health reporting.
func (p *Publisher) Breaker() *breaker.Breaker {
	return p.breaker
}
