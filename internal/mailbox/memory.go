package mailbox

import (
	"context"
	"sync"
	"time"
)

// MemoryBroker is the in-memory Broker used in tests and local wiring.
// Queues are created on first use and shared by name, so a producer and a
// consumer handed the same broker see the same queue.
type MemoryBroker struct {
	mu     sync.Mutex
	queues map[string]*memoryQueue
}

// NewMemoryBroker creates an empty in-memory broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{queues: make(map[string]*memoryQueue)}
}

// Queue returns the named queue, creating it if needed.
func (b *MemoryBroker) Queue(name string) Mailbox {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[name]
	if !ok {
		q = &memoryQueue{name: name, leases: make(map[int][]byte)}
		b.queues[name] = q
	}
	return q
}

// Close drops all queues.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues = make(map[string]*memoryQueue)
	return nil
}

// memoryQueue mirrors the Redis mailbox semantics: FIFO delivery, a lease
// table standing in for the processing list, Nack re-queueing at the front.
type memoryQueue struct {
	mu      sync.Mutex
	name    string
	items   [][]byte
	leases  map[int][]byte
	nextIDs int
}

func (q *memoryQueue) Name() string { return q.name }

func (q *memoryQueue) Send(_ context.Context, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, append([]byte(nil), body...))
	return nil
}

func (q *memoryQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]*Message, error) {
	if max <= 0 {
		max = 1
	}
	deadline := time.Now().Add(wait)
	for {
		if msgs := q.take(max); len(msgs) > 0 {
			return msgs, nil
		}
		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (q *memoryQueue) take(max int) []*Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*Message
	for len(out) < max && len(q.items) > 0 {
		body := q.items[0]
		q.items = q.items[1:]
		id := q.nextIDs
		q.nextIDs++
		q.leases[id] = body
		out = append(out, &Message{
			Body: body,
			ack: func(context.Context) error {
				return q.settle(id, false)
			},
			nack: func(context.Context, time.Duration) error {
				return q.settle(id, true)
			},
		})
	}
	return out
}

// settle ends a lease; requeue puts the body back at the tail so pending
// messages are delivered first, matching the Redis transport.
func (q *memoryQueue) settle(id int, requeue bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	body, ok := q.leases[id]
	if !ok {
		return ErrReceiptHandleExpired
	}
	delete(q.leases, id)
	if requeue {
		q.items = append(q.items, body)
	}
	return nil
}

// ExpireLeases invalidates every outstanding lease, simulating handle
// expiry for tests.
func (q *memoryQueue) ExpireLeases() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.leases = make(map[int][]byte)
}

func (q *memoryQueue) Purge(context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	q.leases = make(map[int][]byte)
	return nil
}

func (q *memoryQueue) Close() error { return nil }
