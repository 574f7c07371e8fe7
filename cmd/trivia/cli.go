// Package main defines the CLI structure using kong.
package main

import "time"

// CLI defines the command-line interface.
type CLI struct {
	Ask  AskCmd  `cmd:"" default:"withargs" help:"Ask the trivia agent a question"`
	Eval EvalCmd `cmd:"" help:"Submit a question as an evaluation case"`
}

// AskCmd submits a question and waits for the answer.
type AskCmd struct {
	Question string        `short:"q" required:"" help:"Trivia question to ask"`
	Timeout  time.Duration `default:"120s" help:"How long to wait for the answer"`
	NoWait   bool          `help:"Submit without waiting for a reply"`
}

// EvalCmd submits a question with an expected answer and reports the score.
type EvalCmd struct {
	Question    string        `short:"q" required:"" help:"Trivia question to ask"`
	Expected    string        `short:"e" required:"" help:"Expected answer substring"`
	Timeout     time.Duration `default:"120s" help:"How long to wait for the result"`
	NoWait      bool          `help:"Submit without waiting for a result"`
	Experiment  string        `default:"cli-eval" help:"Experiment name the sample belongs to"`
	Owner       string        `help:"Experiment owner"`
	Description string        `help:"Experiment description"`
}
