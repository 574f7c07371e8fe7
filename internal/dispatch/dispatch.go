// Package dispatch implements the reply-correlation protocol: submitting a
// request to a shared work queue together with a dedicated reply queue name,
// then polling that queue for the one reply carrying the matching
// correlation identifier.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quizhost/trivia-agent/internal/mailbox"
	"github.com/quizhost/trivia-agent/internal/models"
)

// Reply queue prefixes. The dedicated queue for a request is
// "{prefix}-{correlation id}" (see mailbox.ReplyQueueName).
const (
	ReplyQueuePrefix     = "qa:replies"
	EvalReplyQueuePrefix = "qa:eval:replies"
)

// Wait loop defaults.
const (
	DefaultTimeout  = 120 * time.Second
	DefaultPollWait = 5 * time.Second
)

// WaitForReply polls replies until a message whose correlation key equals
// want arrives, the deadline passes, or ctx is cancelled. A nil, nil return
// means timeout: no matching reply arrived.
//
// The reply queue is private to one request by construction, but the
// identifier is still re-checked: replies carrying a different identifier
// are released back with zero visibility and never returned. Expired
// receipt handles during the ack or the release are swallowed; the lease
// mechanism self-heals.
func WaitForReply[T any](
	ctx context.Context,
	replies mailbox.Mailbox,
	want string,
	key func(*T) string,
	timeout time.Duration,
	pollWait time.Duration,
) (*T, error) {
	if pollWait <= 0 {
		pollWait = DefaultPollWait
	}
	deadline := time.Now().Add(timeout)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		wait := pollWait
		if wait > remaining {
			wait = remaining
		}

		msgs, err := replies.Receive(ctx, 1, wait)
		if err != nil {
			return nil, err
		}
		if len(msgs) == 0 {
			continue
		}
		msg := msgs[0]

		var body T
		if err := json.Unmarshal(msg.Body, &body); err != nil {
			// Not decodable as a reply; treat like a foreign message.
			if err := msg.Nack(ctx, 0); err != nil && !errors.Is(err, mailbox.ErrReceiptHandleExpired) {
				return nil, err
			}
			continue
		}

		if key(&body) != want {
			if err := msg.Nack(ctx, 0); err != nil && !errors.Is(err, mailbox.ErrReceiptHandleExpired) {
				return nil, err
			}
			continue
		}

		if err := msg.Ack(ctx); err != nil && !errors.Is(err, mailbox.ErrReceiptHandleExpired) {
			return nil, err
		}
		return &body, nil
	}
}

// WaitForResult waits for the answer to a regular question, correlating by
// request identifier.
func WaitForResult(
	ctx context.Context,
	replies mailbox.Mailbox,
	requestID uuid.UUID,
	timeout time.Duration,
) (*models.AgentResult, error) {
	return WaitForReply(ctx, replies, requestID.String(),
		func(r *models.AgentResult) string { return r.RequestID.String() },
		timeout, DefaultPollWait)
}

// WaitForEvalResult waits for an evaluation outcome, correlating by sample
// identifier.
func WaitForEvalResult(
	ctx context.Context,
	replies mailbox.Mailbox,
	sampleID string,
	timeout time.Duration,
) (*models.EvalResult, error) {
	return WaitForReply(ctx, replies, sampleID,
		func(r *models.EvalResult) string { return r.SampleID },
		timeout, DefaultPollWait)
}
