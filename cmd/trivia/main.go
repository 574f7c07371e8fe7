// Package main is the trivia dispatcher CLI. It submits questions and
// evaluation cases to the worker queues and waits for the correlated reply.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/quizhost/trivia-agent/internal/config"
	"github.com/quizhost/trivia-agent/internal/dispatch"
	"github.com/quizhost/trivia-agent/internal/mailbox"
	"github.com/quizhost/trivia-agent/internal/models"
)

// errEvalFailed marks an evaluation that ran but did not pass. The verdict
// is already printed by then; main only converts it into exit code 1.
var errEvalFailed = errors.New("evaluation failed")

// app carries the shared pieces every command needs, bound into kong.
type app struct {
	ctx      context.Context
	settings *config.Settings
	broker   mailbox.Broker
}

func main() {
	_ = godotenv.Load()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("trivia"),
		kong.Description("Ask the trivia agent questions over the Redis queues."),
		kong.UsageOnError(),
	)

	settings, err := config.Load(config.Environ())
	if err != nil {
		fmt.Fprintf(os.Stderr, "trivia: %v\n", err)
		os.Exit(1)
	}
	broker, err := mailbox.NewRedisBroker(settings.RedisURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trivia: %v\n", err)
		os.Exit(1)
	}
	defer broker.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := kctx.Run(&app{ctx: ctx, settings: settings, broker: broker}); err != nil {
		if !errors.Is(err, errEvalFailed) {
			fmt.Fprintf(os.Stderr, "trivia: %v\n", err)
		}
		os.Exit(1)
	}
}

// Run submits a question and, unless --no-wait, blocks for the answer.
func (c *AskCmd) Run(a *app) error {
	req := models.NewAgentRequest(models.TriviaRequest{Question: c.Question})
	if !c.NoWait {
		replyTo, err := mailbox.ReplyQueueName(dispatch.ReplyQueuePrefix, req.ID.String())
		if err != nil {
			return err
		}
		req.ReplyTo = replyTo
	}

	if err := send(a, a.settings.RequestsQueue, req); err != nil {
		return err
	}
	fmt.Printf("Submitted question: %s\n", c.Question)
	if c.NoWait {
		return nil
	}

	replies := a.broker.Queue(req.ReplyTo)
	defer dropReplyQueue(replies)

	fmt.Println("Waiting for response...")
	result, err := dispatch.WaitForResult(a.ctx, replies, req.ID, c.Timeout)
	if err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("no answer within %s", c.Timeout)
	}
	if result.Error != "" {
		return fmt.Errorf("agent error: %s", result.Error)
	}
	if result.Output == nil {
		return errors.New("agent returned an empty result")
	}

	fmt.Printf("Answer: %s\n", result.Output.Answer)
	return nil
}

// Run submits an evaluation case and, unless --no-wait, blocks for the
// scored result. A completed run that does not pass exits with code 1.
func (c *EvalCmd) Run(a *app) error {
	sampleID := uuid.New().String()
	req := models.EvalRequest{
		Sample: models.Sample{
			ID:       sampleID,
			Input:    models.TriviaRequest{Question: c.Question},
			Expected: c.Expected,
		},
		Experiment: models.Experiment{
			Name:        c.Experiment,
			Owner:       c.Owner,
			Description: c.Description,
		},
	}
	if !c.NoWait {
		replyTo, err := mailbox.ReplyQueueName(dispatch.EvalReplyQueuePrefix, sampleID)
		if err != nil {
			return err
		}
		req.ReplyTo = replyTo
	}

	if err := send(a, a.settings.EvalRequestsQueue, req); err != nil {
		return err
	}
	fmt.Printf("Submitted evaluation: %s\n", c.Question)
	if c.NoWait {
		return nil
	}

	replies := a.broker.Queue(req.ReplyTo)
	defer dropReplyQueue(replies)

	fmt.Println("Waiting for result...")
	result, err := dispatch.WaitForEvalResult(a.ctx, replies, sampleID, c.Timeout)
	if err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("no result within %s", c.Timeout)
	}
	if result.Error != "" {
		return fmt.Errorf("evaluation error: %s", result.Error)
	}

	status := "FAILED"
	if result.Score.Passed {
		status = "PASSED"
	}
	fmt.Printf("%s (score %.2f)\n", status, result.Score.Value)
	fmt.Printf("Reason: %s\n", result.Score.Reason)
	fmt.Printf("Latency: %dms\n", result.LatencyMS)
	if result.BundlePath != "" {
		fmt.Printf("Bundle: %s\n", result.BundlePath)
	}
	if !result.Score.Passed {
		return errEvalFailed
	}
	return nil
}

// dropReplyQueue deletes a per-request reply queue once waiting is over.
// The queue is single-use; a reply arriving after a timeout would otherwise
// sit in the broker forever.
func dropReplyQueue(q mailbox.Mailbox) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = q.Purge(ctx)
	_ = q.Close()
}

// send marshals v and enqueues it on the named queue.
func send(a *app, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	q := a.broker.Queue(queue)
	defer q.Close()
	return q.Send(a.ctx, body)
}
