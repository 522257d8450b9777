// Package redis publishes engine events to a Redis stream so external
// consumers can follow a run live or after the fact.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"scalper/internal/metrics"
	"scalper/internal/model"
)

// DefaultStream is the stream key events are appended to.
const DefaultStream = "scalper:events"

// Config holds the connection and stream settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	MaxLen   int64 // approximate cap on stream length
}

// streamClient is the subset of *goredis.Client the publisher needs.
type streamClient interface {
	XAdd(ctx context.Context, a *goredis.XAddArgs) *goredis.StringCmd
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// Publisher appends every engine event to a Redis stream with XADD.
// Entry, exit and kill events are also sent on a pub/sub channel.
// Calls go through a circuit breaker so a dead Redis costs one fast
// rejection per bar instead of a network timeout.
type Publisher struct {
	client  streamClient
	rdb     *goredis.Client
	stream  string
	maxLen  int64
	breaker *CircuitBreaker
	metrics *metrics.Metrics
}

// New connects to Redis and returns a Publisher.
func New(cfg Config, m *metrics.Metrics) (*Publisher, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	p := newPublisher(rdb, cfg, m)
	p.rdb = rdb
	log.Printf("[redis] connected to %s, stream %s", cfg.Addr, p.stream)
	return p, nil
}

func newPublisher(client streamClient, cfg Config, m *metrics.Metrics) *Publisher {
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = 100000
	}
	p := &Publisher{
		client:  client,
		stream:  cfg.Stream,
		maxLen:  cfg.MaxLen,
		breaker: NewCircuitBreaker(5, 10*time.Second),
		metrics: m,
	}
	p.breaker.OnStateChange = func(from, to State) {
		log.Printf("[redis] circuit breaker %s -> %s", from, to)
		p.metrics.ObserveBreaker(int(to))
	}
	return p
}

// Client returns the underlying client for health checks; nil in tests.
func (p *Publisher) Client() *goredis.Client { return p.rdb }

// Breaker exposes the publisher's circuit breaker.
func (p *Publisher) Breaker() *CircuitBreaker { return p.breaker }

// Channel returns the pub/sub channel name for an event type.
func (p *Publisher) Channel(t model.EventType) string {
	return p.stream + ":" + string(t)
}

// Publish implements model.EventSink.
func (p *Publisher) Publish(ctx context.Context, ev model.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}

	return p.breaker.Execute(func() error {
		err := p.client.XAdd(ctx, &goredis.XAddArgs{
			Stream: p.stream,
			MaxLen: p.maxLen,
			Approx: true,
			Values: map[string]interface{}{
				"type":   string(ev.Type),
				"run_id": ev.RunID,
				"data":   string(data),
			},
		}).Err()
		if err != nil {
			return fmt.Errorf("redis xadd %s: %w", p.stream, err)
		}
		if ev.Type == model.EventBar {
			return nil
		}
		if err := p.client.Publish(ctx, p.Channel(ev.Type), data).Err(); err != nil {
			return fmt.Errorf("redis publish %s: %w", ev.Type, err)
		}
		return nil
	})
}

// Close releases the connection.
func (p *Publisher) Close() error {
	if p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}
