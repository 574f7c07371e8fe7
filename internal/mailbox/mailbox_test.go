package mailbox

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokers returns both implementations so the contract tests run against
// the real transport (via miniredis) and the in-memory double.
func brokers(t *testing.T) map[string]Broker {
	t.Helper()
	srv := miniredis.RunT(t)
	rb, err := NewRedisBroker("redis://" + srv.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { rb.Close() })
	return map[string]Broker{
		"redis":  rb,
		"memory": NewMemoryBroker(),
	}
}

func TestSendReceiveAck(t *testing.T) {
	for name, broker := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := broker.Queue("q:test")

			require.NoError(t, q.Send(ctx, []byte(`{"n":1}`)))
			require.NoError(t, q.Send(ctx, []byte(`{"n":2}`)))

			msgs, err := q.Receive(ctx, 1, 100*time.Millisecond)
			require.NoError(t, err)
			require.Len(t, msgs, 1)
			assert.JSONEq(t, `{"n":1}`, string(msgs[0].Body))
			require.NoError(t, msgs[0].Ack(ctx))

			// Acked message stays gone; the second one is still there.
			msgs, err = q.Receive(ctx, 2, 100*time.Millisecond)
			require.NoError(t, err)
			require.Len(t, msgs, 1)
			assert.JSONEq(t, `{"n":2}`, string(msgs[0].Body))
		})
	}
}

func TestNackRedelivers(t *testing.T) {
	for name, broker := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := broker.Queue("q:nack")

			require.NoError(t, q.Send(ctx, []byte("a")))
			msgs, err := q.Receive(ctx, 1, 100*time.Millisecond)
			require.NoError(t, err)
			require.Len(t, msgs, 1)

			// Zero visibility: immediately available again.
			require.NoError(t, msgs[0].Nack(ctx, 0))
			msgs, err = q.Receive(ctx, 1, 100*time.Millisecond)
			require.NoError(t, err)
			require.Len(t, msgs, 1)
			assert.Equal(t, "a", string(msgs[0].Body))
		})
	}
}

func TestNackRequeuesBehindPending(t *testing.T) {
	for name, broker := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := broker.Queue("q:order")

			require.NoError(t, q.Send(ctx, []byte("a")))
			require.NoError(t, q.Send(ctx, []byte("b")))

			msgs, err := q.Receive(ctx, 1, 100*time.Millisecond)
			require.NoError(t, err)
			require.Len(t, msgs, 1)
			assert.Equal(t, "a", string(msgs[0].Body))
			require.NoError(t, msgs[0].Nack(ctx, 0))

			// A single consumer rejecting "a" must still reach "b"; the
			// released message comes back after the pending one.
			msgs, err = q.Receive(ctx, 1, 100*time.Millisecond)
			require.NoError(t, err)
			require.Len(t, msgs, 1)
			assert.Equal(t, "b", string(msgs[0].Body))
			require.NoError(t, msgs[0].Ack(ctx))

			msgs, err = q.Receive(ctx, 1, 100*time.Millisecond)
			require.NoError(t, err)
			require.Len(t, msgs, 1)
			assert.Equal(t, "a", string(msgs[0].Body))
		})
	}
}

func TestDoubleSettleExpiresHandle(t *testing.T) {
	for name, broker := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := broker.Queue("q:expire")

			require.NoError(t, q.Send(ctx, []byte("x")))
			msgs, err := q.Receive(ctx, 1, 100*time.Millisecond)
			require.NoError(t, err)
			require.Len(t, msgs, 1)

			require.NoError(t, msgs[0].Ack(ctx))
			assert.ErrorIs(t, msgs[0].Ack(ctx), ErrReceiptHandleExpired)
			assert.ErrorIs(t, msgs[0].Nack(ctx, 0), ErrReceiptHandleExpired)
		})
	}
}

func TestReceiveTimeout(t *testing.T) {
	for name, broker := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := broker.Queue("q:empty")

			start := time.Now()
			msgs, err := q.Receive(ctx, 1, 150*time.Millisecond)
			require.NoError(t, err)
			assert.Empty(t, msgs)

			// Sub-second waits must honor the requested wait, not the
			// one-second floor of a blocking pop.
			elapsed := time.Since(start)
			assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
			assert.Less(t, elapsed, 900*time.Millisecond)
		})
	}
}

func TestPurge(t *testing.T) {
	for name, broker := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := broker.Queue("q:purge")

			require.NoError(t, q.Send(ctx, []byte("a")))
			require.NoError(t, q.Send(ctx, []byte("b")))
			require.NoError(t, q.Purge(ctx))

			msgs, err := q.Receive(ctx, 2, 50*time.Millisecond)
			require.NoError(t, err)
			assert.Empty(t, msgs)
		})
	}
}

func TestReplyQueueName(t *testing.T) {
	name, err := ReplyQueueName("qa:replies", "550e8400-e29b-41d4-a716-446655440000")
	require.NoError(t, err)
	assert.Equal(t, "qa:replies-550e8400-e29b-41d4-a716-446655440000", name)

	_, err = ReplyQueueName("", "id")
	assert.Error(t, err)
}

func TestExpireLeasesInvalidatesHandles(t *testing.T) {
	ctx := context.Background()
	broker := NewMemoryBroker()
	q := broker.Queue("q:lease")

	require.NoError(t, q.Send(ctx, []byte("x")))
	msgs, err := q.Receive(ctx, 1, 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	q.(*memoryQueue).ExpireLeases()

	assert.ErrorIs(t, msgs[0].Ack(ctx), ErrReceiptHandleExpired)
	assert.ErrorIs(t, msgs[0].Nack(ctx, 0), ErrReceiptHandleExpired)
}

func TestMemoryBrokerSharesQueuesByName(t *testing.T) {
	ctx := context.Background()
	broker := NewMemoryBroker()

	producer := broker.Queue("shared")
	consumer := broker.Queue("shared")
	require.NoError(t, producer.Send(ctx, []byte("hello")))

	msgs, err := consumer.Receive(ctx, 1, 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", string(msgs[0].Body))
}
