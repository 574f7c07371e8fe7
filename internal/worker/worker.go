// Package worker consumes trivia questions and evaluation cases from the
// request queues, runs them through the agent runtime and delivers results
// to the per-request reply queues.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"trpc.group/trpc-go/trpc-agent-go/agent"
	"trpc.group/trpc-go/trpc-agent-go/log"
	"trpc.group/trpc-go/trpc-agent-go/model"
	"trpc.group/trpc-go/trpc-agent-go/runner"

	"github.com/quizhost/trivia-agent/internal/config"
	"github.com/quizhost/trivia-agent/internal/dispatch"
	"github.com/quizhost/trivia-agent/internal/mailbox"
	"github.com/quizhost/trivia-agent/internal/models"
	"github.com/quizhost/trivia-agent/internal/trivia"
)

// userID under which all queue-driven sessions are created. Each request
// gets its own session, so a shared user identity is enough.
const userID = "trivia"

// Worker runs the two consumption loops. It owns neither the runner nor the
// broker; the entry point constructs and closes both.
type Worker struct {
	runner   runner.Runner
	broker   mailbox.Broker
	settings *config.Settings
	pollWait time.Duration
}

// New builds a worker over an agent runner and a queue broker.
func New(r runner.Runner, b mailbox.Broker, settings *config.Settings) *Worker {
	return &Worker{
		runner:   r,
		broker:   b,
		settings: settings,
		pollWait: dispatch.DefaultPollWait,
	}
}

// Run starts the request and evaluation loops and blocks until the context
// is cancelled and both loops have drained their in-flight message.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.RunRequests(ctx)
	}()
	go func() {
		defer wg.Done()
		w.RunEvals(ctx)
	}()
	wg.Wait()
}

// RunRequests consumes the regular question queue until ctx is cancelled.
func (w *Worker) RunRequests(ctx context.Context) {
	queue := w.broker.Queue(w.settings.RequestsQueue)
	defer queue.Close()
	log.Infof("worker: consuming requests from %q", queue.Name())

	w.consume(ctx, queue, func(ctx context.Context, body []byte) error {
		var req models.AgentRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return fmt.Errorf("decode request: %w", err)
		}
		result := w.ProcessRequest(ctx, req)
		return w.reply(ctx, req.ReplyTo, result)
	})
}

// RunEvals consumes the evaluation queue until ctx is cancelled.
func (w *Worker) RunEvals(ctx context.Context) {
	queue := w.broker.Queue(w.settings.EvalRequestsQueue)
	defer queue.Close()
	log.Infof("worker: consuming evaluations from %q", queue.Name())

	w.consume(ctx, queue, func(ctx context.Context, body []byte) error {
		var req models.EvalRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return fmt.Errorf("decode eval request: %w", err)
		}
		result := w.ProcessEval(ctx, req)
		return w.reply(ctx, req.ReplyTo, result)
	})
}

// consume receives one message at a time and hands the body to handle.
// Messages are always acked, including on handler failure: a body that
// cannot be decoded or answered will not improve on redelivery, and
// leaving it leased would wedge the queue.
func (w *Worker) consume(ctx context.Context, queue mailbox.Mailbox, handle func(context.Context, []byte) error) {
	for {
		if ctx.Err() != nil {
			return
		}
		msgs, err := queue.Receive(ctx, 1, w.pollWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Errorf("worker: receive from %q: %v", queue.Name(), err)
			// A broken broker connection fails Receive immediately; back
			// off so the loop does not spin.
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.pollWait):
			}
			continue
		}
		for _, msg := range msgs {
			if err := handle(ctx, msg.Body); err != nil {
				log.Warnf("worker: dropping message from %q: %v", queue.Name(), err)
			}
			if err := msg.Ack(context.WithoutCancel(ctx)); err != nil && err != mailbox.ErrReceiptHandleExpired {
				log.Errorf("worker: ack on %q: %v", queue.Name(), err)
			}
		}
	}
}

// reply delivers a result to the named reply queue. An empty replyTo means
// fire-and-forget; the result is logged and dropped.
func (w *Worker) reply(ctx context.Context, replyTo string, result any) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if replyTo == "" {
		log.Debugf("worker: no reply queue, result dropped: %s", body)
		return nil
	}
	replies := w.broker.Queue(replyTo)
	defer replies.Close()
	if err := replies.Send(ctx, body); err != nil {
		return fmt.Errorf("send result to %q: %w", replyTo, err)
	}
	return nil
}

// ProcessRequest runs one question through the agent runtime and returns
// the result envelope. Runtime failures are reported in the Error field,
// never as a dropped message.
func (w *Worker) ProcessRequest(ctx context.Context, req models.AgentRequest) models.AgentResult {
	start := time.Now()
	result := models.AgentResult{RequestID: req.ID}

	output, runErr := w.ask(ctx, req.ID.String(), req.Request.Question)
	result.LatencyMS = time.Since(start).Milliseconds()
	if runErr != nil {
		result.Error = runErr.Error()
		log.Errorf("worker: request %s failed: %v", req.ID, runErr)
	} else {
		result.Output = output
	}

	result.BundlePath = w.writeBundle(req.ID.String(), req, result)
	log.Infof("worker: request %s done in %dms", req.ID, result.LatencyMS)
	return result
}

// ProcessEval runs one evaluation sample, scores the answer and returns the
// result envelope.
func (w *Worker) ProcessEval(ctx context.Context, req models.EvalRequest) models.EvalResult {
	start := time.Now()
	result := models.EvalResult{SampleID: req.Sample.ID}

	sessionID := fmt.Sprintf("eval-%s-%s", req.Experiment.Name, req.Sample.ID)
	output, runErr := w.ask(ctx, sessionID, req.Sample.Input.Question)
	result.LatencyMS = time.Since(start).Milliseconds()
	if runErr != nil {
		result.Error = runErr.Error()
		log.Errorf("worker: eval sample %s failed: %v", req.Sample.ID, runErr)
	} else {
		result.Score = trivia.Evaluate(*output, req.Sample.Expected)
	}

	result.BundlePath = w.writeBundle(sessionID, req, result)
	log.Infof("worker: eval sample %s done in %dms (passed=%v)",
		req.Sample.ID, result.LatencyMS, result.Score.Passed)
	return result
}

// ask runs one question through the runner and collects the structured
// answer from the event stream. The final plain-text content is kept as a
// fallback for models that skip the structured output path.
func (w *Worker) ask(ctx context.Context, sessionID, question string) (*models.TriviaResponse, error) {
	events, err := w.runner.Run(
		ctx,
		userID,
		sessionID,
		model.NewUserMessage(question),
		agent.WithRequestID(sessionID),
	)
	if err != nil {
		return nil, fmt.Errorf("run agent: %w", err)
	}

	var structured *models.TriviaResponse
	var content string
	for ev := range events {
		if ev == nil {
			continue
		}
		if out, ok := ev.StructuredOutput.(*models.TriviaResponse); ok {
			structured = out
		}
		if ev.Response == nil {
			continue
		}
		if ev.Error != nil {
			return nil, fmt.Errorf("agent: %s", ev.Error.Message)
		}
		if ev.IsFinalResponse() && len(ev.Response.Choices) > 0 {
			content = ev.Response.Choices[0].Message.Content
		}
	}
	if structured != nil {
		return structured, nil
	}
	if content != "" {
		return &models.TriviaResponse{Answer: content}, nil
	}
	return nil, fmt.Errorf("agent produced no answer")
}

// writeBundle records the request/result pair as a JSON file in the debug
// bundles directory, if one is configured. Returns the bundle path, empty
// when disabled or on write failure.
func (w *Worker) writeBundle(name string, request, result any) string {
	if w.settings.DebugBundlesDir == "" {
		return ""
	}
	bundle := map[string]any{
		"request":    request,
		"result":     result,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		log.Warnf("worker: encode bundle %s: %v", name, err)
		return ""
	}
	path := filepath.Join(w.settings.DebugBundlesDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warnf("worker: write bundle %s: %v", path, err)
		return ""
	}
	return path
}
