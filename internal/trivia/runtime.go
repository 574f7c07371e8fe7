package trivia

import (
	"fmt"

	"trpc.group/trpc-go/trpc-agent-go/agent/llmagent"
	"trpc.group/trpc-go/trpc-agent-go/model"
	"trpc.group/trpc-go/trpc-agent-go/model/openai"
	"trpc.group/trpc-go/trpc-agent-go/runner"
	redissession "trpc.group/trpc-go/trpc-agent-go/session/redis"

	"github.com/quizhost/trivia-agent/internal/models"
)

// Application and agent identifiers registered with the runtime.
const (
	AppName   = "trivia-agent"
	AgentName = "trivia-host"
)

// RunnerConfig collects everything needed to build the agent runtime.
type RunnerConfig struct {
	ModelName   string
	APIKey      string
	RedisURL    string
	Instruction string
}

// NewRunner wires the model, tools, structured output and Redis-backed
// session service into a runner. All orchestration beyond this wiring -
// tool-call handling, completion detection, session state - belongs to the
// runtime.
func NewRunner(cfg RunnerConfig) (runner.Runner, error) {
	modelInstance := openai.New(cfg.ModelName, openai.WithAPIKey(cfg.APIKey))

	sessionService, err := redissession.NewService(
		redissession.WithRedisClientURL(cfg.RedisURL),
	)
	if err != nil {
		return nil, fmt.Errorf("trivia: session service: %w", err)
	}

	genConfig := model.GenerationConfig{
		MaxTokens:   intPtr(1024),
		Temperature: floatPtr(0.2),
		Stream:      false,
	}

	agent := llmagent.New(
		AgentName,
		llmagent.WithModel(modelInstance),
		llmagent.WithDescription("Host of the secret trivia game."),
		llmagent.WithInstruction(cfg.Instruction),
		llmagent.WithGenerationConfig(genConfig),
		llmagent.WithTools(Tools()),
		llmagent.WithStructuredOutputJSON(
			new(models.TriviaResponse),
			true,
			"The final answer to the trivia question.",
		),
	)

	return runner.NewRunner(
		AppName,
		agent,
		runner.WithSessionService(sessionService),
	), nil
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
