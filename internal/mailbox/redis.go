package mailbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBroker opens queues backed by Redis lists. All queues share one
// pooled client; each reply queue is logically private to one request, so no
// coordination beyond Redis's own atomicity is needed.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker connects to the broker at the given URL
// (redis://[user:pass@]host:port[/db]).
func NewRedisBroker(url string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("mailbox: parse redis url: %w", err)
	}
	return &RedisBroker{client: redis.NewClient(opts)}, nil
}

// NewRedisBrokerFromClient wraps an existing client, sharing its pool.
func NewRedisBrokerFromClient(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// Queue returns a mailbox view of the named list.
func (b *RedisBroker) Queue(name string) Mailbox {
	return &redisMailbox{
		client:     b.client,
		name:       name,
		processing: name + ":processing",
	}
}

// Close closes the shared client.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}

// redisMailbox implements Mailbox over a pair of lists: the queue itself and
// a processing list holding leased messages. Receiving atomically moves a
// message into the processing list; Ack removes it from there, Nack moves it
// back. A message missing from the processing list means the lease expired.
type redisMailbox struct {
	client     *redis.Client
	name       string
	processing string
}

func (m *redisMailbox) Name() string { return m.name }

func (m *redisMailbox) Send(ctx context.Context, body []byte) error {
	if err := m.client.LPush(ctx, m.name, body).Err(); err != nil {
		return fmt.Errorf("mailbox: send to %s: %w", m.name, err)
	}
	return nil
}

func (m *redisMailbox) Receive(ctx context.Context, max int, wait time.Duration) ([]*Message, error) {
	if max <= 0 {
		max = 1
	}
	first, err := m.waitFirst(ctx, wait)
	if err != nil {
		return nil, err
	}
	if first == nil {
		return nil, nil
	}
	out := []*Message{first}
	for len(out) < max {
		body, err := m.client.RPopLPush(ctx, m.name, m.processing).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mailbox: receive from %s: %w", m.name, err)
		}
		out = append(out, m.leased(body))
	}
	return out, nil
}

// waitFirst blocks up to wait for one message. go-redis rounds blocking-pop
// timeouts below one second up to a full second, so short waits use a
// non-blocking polling loop instead.
func (m *redisMailbox) waitFirst(ctx context.Context, wait time.Duration) (*Message, error) {
	if wait >= time.Second {
		body, err := m.client.BRPopLPush(ctx, m.name, m.processing, wait).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("mailbox: receive from %s: %w", m.name, err)
		}
		return m.leased(body), nil
	}
	deadline := time.Now().Add(wait)
	for {
		body, err := m.client.RPopLPush(ctx, m.name, m.processing).Result()
		if err == nil {
			return m.leased(body), nil
		}
		if !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("mailbox: receive from %s: %w", m.name, err)
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// leased wraps a moved body in a Message whose Ack/Nack operate on the
// processing list. LRem by value is safe because bodies embed unique
// request identifiers.
func (m *redisMailbox) leased(body string) *Message {
	return &Message{
		Body: []byte(body),
		ack: func(ctx context.Context) error {
			n, err := m.client.LRem(ctx, m.processing, 1, body).Result()
			if err != nil {
				return fmt.Errorf("mailbox: ack on %s: %w", m.name, err)
			}
			if n == 0 {
				return ErrReceiptHandleExpired
			}
			return nil
		},
		nack: func(ctx context.Context, _ time.Duration) error {
			n, err := m.client.LRem(ctx, m.processing, 1, body).Result()
			if err != nil {
				return fmt.Errorf("mailbox: nack on %s: %w", m.name, err)
			}
			if n == 0 {
				return ErrReceiptHandleExpired
			}
			// Head push so pending messages are delivered first. A released
			// message going back ahead of the rest would starve a single
			// consumer that keeps rejecting it.
			if err := m.client.LPush(ctx, m.name, body).Err(); err != nil {
				return fmt.Errorf("mailbox: requeue on %s: %w", m.name, err)
			}
			return nil
		},
	}
}

func (m *redisMailbox) Purge(ctx context.Context) error {
	if err := m.client.Del(ctx, m.name, m.processing).Err(); err != nil {
		return fmt.Errorf("mailbox: purge %s: %w", m.name, err)
	}
	return nil
}

// Close is a no-op; the client belongs to the broker.
func (m *redisMailbox) Close() error { return nil }
