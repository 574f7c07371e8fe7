// Package trivia binds the secret-trivia game to the agent runtime: tool
// handlers, prompt assembly, answer evaluation and runner construction.
package trivia

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"trpc.group/trpc-go/trpc-agent-go/tool"
	"trpc.group/trpc-go/trpc-agent-go/tool/function"
)

// HintArgs selects the trivia category to get a hint for.
type HintArgs struct {
	Category string `json:"category" jsonschema:"description=Trivia category: 'number', 'word', 'color' or 'phrase'. Partial matches like 'secret number' work."`
}

// HintResult is the hint lookup outcome. Hint is empty when Found is false.
type HintResult struct {
	Found bool   `json:"found"`
	Hint  string `json:"hint"`
}

// hintEntry keeps category matching order deterministic.
type hintEntry struct {
	category string
	hint     string
}

var hints = []hintEntry{
	{"number", "Think of the answer to life, the universe, and everything."},
	{"word", "It's a yellow fruit that monkeys love."},
	{"color", "Mix red and blue together."},
	{"phrase", "Ali Baba said this to enter the cave of treasures."},
}

// LookupHint returns the hint for the first category whose name is contained
// in the given category string, case-insensitively. Unknown categories
// produce a not-found result, never an error.
func LookupHint(_ context.Context, args HintArgs) (HintResult, error) {
	category := strings.ToLower(args.Category)
	for _, e := range hints {
		if strings.Contains(category, e.category) {
			return HintResult{Found: true, Hint: e.hint}, nil
		}
	}
	return HintResult{Found: false, Hint: ""}, nil
}

// PickUpDiceArgs is empty; picking up the dice takes no input.
type PickUpDiceArgs struct{}

// PickUpDiceResult confirms the dice is ready to throw.
type PickUpDiceResult struct {
	Message string `json:"message"`
}

// PickUpDice readies the lucky dice. Must be called before ThrowDice; the
// ordering itself is enforced by the prompt, not by this handler.
func PickUpDice(_ context.Context, _ PickUpDiceArgs) (PickUpDiceResult, error) {
	return PickUpDiceResult{Message: "You picked up the lucky dice. You can now throw it!"}, nil
}

// ThrowDiceArgs is empty; throwing the dice takes no input.
type ThrowDiceArgs struct{}

// ThrowDiceResult carries the roll, an integer in [1,6]. A 6 is a lucky
// roll worth bonus points.
type ThrowDiceResult struct {
	Value   int    `json:"value"`
	Message string `json:"message"`
}

// ThrowDice rolls the dice. The value is uniformly random and unseeded.
func ThrowDice(_ context.Context, _ ThrowDiceArgs) (ThrowDiceResult, error) {
	value := rand.IntN(6) + 1
	msg := fmt.Sprintf("You rolled a %d.", value)
	if value == 6 {
		msg = "Lucky roll! You got a 6! Bonus points!"
	}
	return ThrowDiceResult{Value: value, Message: msg}, nil
}

// Tools returns the game's tool set for the agent.
func Tools() []tool.Tool {
	return []tool.Tool{
		function.NewFunctionTool(
			LookupHint,
			function.WithName("hint_lookup"),
			function.WithDescription(
				"Get a hint for a trivia category. Use this when the player is stuck. "+
					"Categories: 'number', 'word', 'color', 'phrase'."),
		),
		function.NewFunctionTool(
			PickUpDice,
			function.WithName("pick_up_dice"),
			function.WithDescription("Pick up the lucky dice. You must do this before you can throw it."),
		),
		function.NewFunctionTool(
			ThrowDice,
			function.WithName("throw_dice"),
			function.WithDescription(
				"Throw the lucky dice to roll for bonus points (1-6). You must pick up the dice first!"),
		),
	}
}
