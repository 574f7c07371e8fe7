// Package main is the entry point for the trivia worker. It consumes
// questions and evaluation cases from the Redis queues and answers them
// through the agent runtime.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"trpc.group/trpc-go/trpc-agent-go/log"

	"github.com/quizhost/trivia-agent/internal/config"
	"github.com/quizhost/trivia-agent/internal/mailbox"
	"github.com/quizhost/trivia-agent/internal/trivia"
	"github.com/quizhost/trivia-agent/internal/worker"
)

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "trivia-worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	env := config.Environ()
	settings, err := config.Load(env)
	if err != nil {
		return err
	}

	apiKey := env[config.EnvAPIKey]
	if apiKey == "" {
		return fmt.Errorf("%s must be set", config.EnvAPIKey)
	}

	skills := trivia.LoadSkills(env[config.EnvSkillsDir])
	instruction := trivia.BuildInstruction(settings.PromptOverridesDir, skills)

	r, err := trivia.NewRunner(trivia.RunnerConfig{
		ModelName:   config.Model(env),
		APIKey:      apiKey,
		RedisURL:    settings.RedisURL,
		Instruction: instruction,
	})
	if err != nil {
		return err
	}
	defer r.Close()

	broker, err := mailbox.NewRedisBroker(settings.RedisURL)
	if err != nil {
		return err
	}
	defer broker.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if config.SandboxDisabled(env) {
		log.Warnf("trivia-worker: tool sandboxing disabled (%s)", config.EnvDisableSandbox)
	}

	log.Infof("trivia-worker: model=%s queues=[%s %s] skills=%d",
		config.Model(env), settings.RequestsQueue, settings.EvalRequestsQueue, len(skills))

	worker.New(r, broker, settings).Run(ctx)
	log.Infof("trivia-worker: shutdown complete")
	return nil
}
