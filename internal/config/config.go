// Package config provides environment-derived configuration for the trivia agent.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variable names consumed by Load.
const (
	EnvRedisURL           = "REDIS_URL"
	EnvRequestsQueue      = "TRIVIA_REQUESTS_QUEUE"
	EnvEvalRequestsQueue  = "TRIVIA_EVAL_REQUESTS_QUEUE"
	EnvDebugBundlesDir    = "TRIVIA_DEBUG_BUNDLES_DIR"
	EnvPromptOverridesDir = "TRIVIA_PROMPT_OVERRIDES_DIR"
)

// Worker-only environment variables.
const (
	EnvAPIKey         = "OPENAI_API_KEY"
	EnvModel          = "TRIVIA_MODEL"
	EnvSkillsDir      = "TRIVIA_SKILLS_DIR"
	EnvDisableSandbox = "TRIVIA_DISABLE_SANDBOX"
)

// Defaults used when the override variables are unset.
const (
	DefaultRequestsQueue     = "trivia:requests"
	DefaultEvalRequestsQueue = "trivia:eval:requests"
	DefaultModel             = "gpt-4o-mini"
)

// Settings holds the broker and queue configuration for the worker and the
// dispatcher. Instances are built by Load and never mutated afterwards.
type Settings struct {
	RedisURL          string
	RequestsQueue     string
	EvalRequestsQueue string

	// DebugBundlesDir, when non-empty, is an absolute path where per-request
	// debug bundles are written. Created by Load if missing.
	DebugBundlesDir string

	// PromptOverridesDir, when non-empty, is an absolute path holding prompt
	// section override files. Created by Load if missing.
	PromptOverridesDir string
}

// Load builds Settings from an environment mapping. A missing or empty
// REDIS_URL is reported as an error; queue names fall back to defaults.
// Optional directory paths are resolved to absolute form and created
// (including parents) when provided. Creating an existing directory is fine.
func Load(env map[string]string) (*Settings, error) {
	url := env[EnvRedisURL]
	if url == "" {
		return nil, fmt.Errorf("%s environment variable is required", EnvRedisURL)
	}

	s := &Settings{
		RedisURL:          url,
		RequestsQueue:     DefaultRequestsQueue,
		EvalRequestsQueue: DefaultEvalRequestsQueue,
	}
	if q := env[EnvRequestsQueue]; q != "" {
		s.RequestsQueue = q
	}
	if q := env[EnvEvalRequestsQueue]; q != "" {
		s.EvalRequestsQueue = q
	}

	var err error
	if s.DebugBundlesDir, err = ensureDir(env[EnvDebugBundlesDir]); err != nil {
		return nil, fmt.Errorf("debug bundles dir: %w", err)
	}
	if s.PromptOverridesDir, err = ensureDir(env[EnvPromptOverridesDir]); err != nil {
		return nil, fmt.Errorf("prompt overrides dir: %w", err)
	}
	return s, nil
}

// ensureDir resolves path to absolute form and creates it if needed.
// An empty path is passed through untouched.
func ensureDir(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

// Environ snapshots the process environment into a map for Load.
func Environ() map[string]string {
	env := make(map[string]string, len(os.Environ()))
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Model returns the model name configured for the worker, falling back to
// the default when TRIVIA_MODEL is unset.
func Model(env map[string]string) string {
	if m := env[EnvModel]; m != "" {
		return m
	}
	return DefaultModel
}

// SandboxDisabled reports whether the sandbox toggle is set to any
// non-empty value.
func SandboxDisabled(env map[string]string) bool {
	return strings.TrimSpace(env[EnvDisableSandbox]) != ""
}
