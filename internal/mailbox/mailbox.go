// Package mailbox provides named message queues with explicit acknowledge
// and release semantics on top of a list-backed broker.
//
// A received message holds a soft lease (receipt handle). Ack removes the
// message durably; Nack returns it to the queue for another consumer. Once
// the lease is gone - the message was already acked, released or reclaimed -
// both operations report ErrReceiptHandleExpired.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrReceiptHandleExpired reports an Ack or Nack on a lease that no longer
// exists. The transport self-heals (the message is either gone for good or
// already visible again), so callers usually swallow it.
var ErrReceiptHandleExpired = errors.New("mailbox: receipt handle expired")

// Mailbox is a named queue carrying opaque message bodies.
type Mailbox interface {
	// Name returns the queue name.
	Name() string

	// Send enqueues one message body.
	Send(ctx context.Context, body []byte) error

	// Receive returns up to max messages, blocking up to wait for the first
	// one. It returns an empty slice when nothing arrived in time.
	Receive(ctx context.Context, max int, wait time.Duration) ([]*Message, error)

	// Purge drops all pending and leased messages.
	Purge(ctx context.Context) error

	// Close releases resources held by this queue view. The underlying
	// broker connection is owned by the Broker and survives.
	Close() error
}

// Broker opens named queues on a shared transport connection. Two
// implementations exist: Redis-backed and in-memory (test double). The
// caller selects one at construction time.
type Broker interface {
	Queue(name string) Mailbox
	Close() error
}

// Message is a received queue entry under lease.
type Message struct {
	Body []byte

	ack  func(ctx context.Context) error
	nack func(ctx context.Context, visibility time.Duration) error
}

// Ack durably removes the message from the queue.
func (m *Message) Ack(ctx context.Context) error {
	return m.ack(ctx)
}

// Nack releases the message back to its queue, behind any messages already
// pending there. A zero visibility makes it available to other consumers
// right away; the list transport does not support delayed redelivery, so
// larger values behave like zero.
func (m *Message) Nack(ctx context.Context, visibility time.Duration) error {
	return m.nack(ctx, visibility)
}

// ReplyQueueName builds the dedicated reply queue name for a request,
// "{prefix}-{id}". The prefix must be non-empty.
func ReplyQueueName(prefix, id string) (string, error) {
	if prefix == "" {
		return "", errors.New("mailbox: reply queue prefix must be non-empty")
	}
	return fmt.Sprintf("%s-%s", prefix, id), nil
}
