package trivia

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhost/trivia-agent/internal/models"
)

func TestLookupHint(t *testing.T) {
	tests := []struct {
		name     string
		category string
		found    bool
		contains string
	}{
		{name: "exact number", category: "number", found: true, contains: "life, the universe"},
		{name: "partial match", category: "secret number", found: true, contains: "life, the universe"},
		{name: "case insensitive", category: "The Secret WORD", found: true, contains: "yellow fruit"},
		{name: "color", category: "color", found: true, contains: "red and blue"},
		{name: "phrase", category: "magic phrase", found: true, contains: "Ali Baba"},
		{name: "unknown", category: "animal", found: false},
		{name: "empty", category: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LookupHint(context.Background(), HintArgs{Category: tt.category})
			require.NoError(t, err)
			assert.Equal(t, tt.found, got.Found)
			if tt.found {
				assert.Contains(t, got.Hint, tt.contains)
			} else {
				assert.Empty(t, got.Hint)
			}
		})
	}
}

func TestLookupHintIdempotent(t *testing.T) {
	first, err := LookupHint(context.Background(), HintArgs{Category: "number"})
	require.NoError(t, err)
	second, err := LookupHint(context.Background(), HintArgs{Category: "number"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPickUpDice(t *testing.T) {
	got, err := PickUpDice(context.Background(), PickUpDiceArgs{})
	require.NoError(t, err)
	assert.Contains(t, got.Message, "picked up the lucky dice")
}

func TestThrowDiceRange(t *testing.T) {
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		got, err := ThrowDice(context.Background(), ThrowDiceArgs{})
		require.NoError(t, err)
		require.GreaterOrEqual(t, got.Value, 1)
		require.LessOrEqual(t, got.Value, 6)
		seen[got.Value] = true
	}
	// 1000 throws should hit every face.
	assert.Len(t, seen, 6)
}

func TestTools(t *testing.T) {
	tools := Tools()
	require.Len(t, tools, 3)

	names := make([]string, 0, len(tools))
	for _, tl := range tools {
		names = append(names, tl.Declaration().Name)
	}
	assert.ElementsMatch(t, []string{"hint_lookup", "pick_up_dice", "throw_dice"}, names)
}

func TestBuildInstruction(t *testing.T) {
	instruction := BuildInstruction("", nil)
	assert.Contains(t, instruction, "Secret Trivia Game Rules")
	assert.Contains(t, instruction, "Hint System")
	assert.Contains(t, instruction, "Lucky Dice Mini-Game")
}

func TestBuildInstructionOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "rules.md"), []byte("## Custom Rules\n"), 0o644))

	instruction := BuildInstruction(dir, nil)
	assert.Contains(t, instruction, "Custom Rules")
	assert.NotContains(t, instruction, "Secret Trivia Game Rules")
	// Untouched sections keep their defaults.
	assert.Contains(t, instruction, "Hint System")
}

func TestBuildInstructionSkills(t *testing.T) {
	instruction := BuildInstruction("", []Skill{
		{Name: "secret-trivia", Content: "The secret number is 42.\n"},
	})
	assert.Contains(t, instruction, "## Skill: secret-trivia")
	assert.Contains(t, instruction, "The secret number is 42.")
}

func TestLoadSkills(t *testing.T) {
	dir := t.TempDir()

	// Valid skill.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "secret-trivia"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "secret-trivia", "SKILL.md"), []byte("secrets"), 0o644))
	// Directory without SKILL.md is skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "not-a-skill"), 0o755))
	// Plain file is skipped.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644))

	skills := LoadSkills(dir)
	require.Len(t, skills, 1)
	assert.Equal(t, "secret-trivia", skills[0].Name)
	assert.Equal(t, "secrets", skills[0].Content)

	assert.Empty(t, LoadSkills(filepath.Join(dir, "missing")))
	assert.Empty(t, LoadSkills(""))
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		expected string
		passed   bool
		value    float64
	}{
		{
			name:     "correct and brief",
			answer:   "The secret number is 42.",
			expected: "42",
			passed:   true,
			value:    1.0,
		},
		{
			name:     "wrong answer",
			answer:   "The secret color is green.",
			expected: "purple",
			passed:   false,
			value:    0.5,
		},
		{
			name:     "correct but verbose",
			answer:   strings.Repeat("waffle ", 60) + "purple",
			expected: "purple",
			passed:   true,
			value:    0.65,
		},
		{
			name:     "case insensitive match",
			answer:   "PURPLE",
			expected: "purple",
			passed:   true,
			value:    1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Evaluate(models.TriviaResponse{Answer: tt.answer}, tt.expected)
			assert.Equal(t, tt.passed, score.Passed)
			assert.InDelta(t, tt.value, score.Value, 0.001)
			assert.NotEmpty(t, score.Reason)
		})
	}
}
