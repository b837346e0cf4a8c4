package sse

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultRetryMin = time.Second
	defaultRetryMax = 30 * time.Second
)

// RedisRelay shares events between server instances. Publish goes to a Redis
// channel; Run re-broadcasts everything on that channel to the local hub.
type RedisRelay struct {
	rdb     *redis.Client
	hub     *Hub
	channel string
	logger  *zap.Logger

	subscribed atomic.Bool
	retryMin   time.Duration
	retryMax   time.Duration
}

// NewRedisRelay creates a relay bound to channel.
func NewRedisRelay(rdb *redis.Client, hub *Hub, channel string, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{
		rdb:      rdb,
		hub:      hub,
		channel:  channel,
		logger:   logger,
		retryMin: defaultRetryMin,
		retryMax: defaultRetryMax,
	}
}

// Subscribed reports whether Run currently holds a live subscription.
func (r *RedisRelay) Subscribed() bool {
	return r.subscribed.Load()
}

// Publish sends the event through Redis. Local clients still get the event
// when Redis is unreachable or this instance is not subscribed yet.
func (r *RedisRelay) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("encode event", zap.Error(err))
		return
	}
	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.Warn("redis publish failed, delivering locally", zap.String("channel", r.channel), zap.Error(err))
		r.hub.Broadcast(event)
		return
	}
	if !r.subscribed.Load() {
		r.hub.Broadcast(event)
	}
}

// Run keeps a subscription to the channel open until ctx is cancelled,
// re-subscribing with exponential backoff whenever it fails.
func (r *RedisRelay) Run(ctx context.Context) error {
	backoff := r.retryMin
	for {
		ok, err := r.subscribe(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if ok {
			backoff = r.retryMin
		}
		r.logger.Warn("SSE relay subscription lost, retrying",
			zap.String("channel", r.channel),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		if backoff *= 2; backoff > r.retryMax {
			backoff = r.retryMax
		}
	}
}

// subscribe runs one subscription. ok reports whether it was established
// before it ended.
func (r *RedisRelay) subscribe(ctx context.Context) (ok bool, err error) {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return false, err
	}
	r.subscribed.Store(true)
	defer r.subscribed.Store(false)
	r.logger.Info("SSE relay subscribed", zap.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case msg, open := <-ch:
			if !open {
				return true, redis.ErrClosed
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Warn("drop malformed event", zap.Error(err))
				continue
			}
			r.hub.Broadcast(event)
		}
	}
}
