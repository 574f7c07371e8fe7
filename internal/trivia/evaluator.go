package trivia

import (
	"fmt"
	"strings"

	"github.com/quizhost/trivia-agent/internal/models"
)

// Evaluate scores an agent answer against the expected secret. Two
// criteria: the answer must contain the expected value (case-insensitive),
// and trivia answers should be brief. The result passes only when the
// secret is correct and the mean score reaches 0.6.
func Evaluate(output models.TriviaResponse, expected string) models.Score {
	var values []float64
	var reasons []string

	correct := strings.Contains(strings.ToLower(output.Answer), strings.ToLower(expected))
	if correct {
		values = append(values, 1.0)
		reasons = append(reasons, fmt.Sprintf("Correct! Secret %q found", expected))
	} else {
		values = append(values, 0.0)
		reasons = append(reasons, fmt.Sprintf("Wrong! Expected secret %q not in answer", expected))
	}

	words := len(strings.Fields(output.Answer))
	switch {
	case words <= 20:
		values = append(values, 1.0)
		reasons = append(reasons, fmt.Sprintf("Perfect brevity (%d words)", words))
	case words <= 50:
		values = append(values, 0.7)
		reasons = append(reasons, fmt.Sprintf("Acceptable length (%d words)", words))
	default:
		values = append(values, 0.3)
		reasons = append(reasons, fmt.Sprintf("Too verbose for trivia (%d words)", words))
	}

	var total float64
	for _, v := range values {
		total += v
	}
	mean := total / float64(len(values))

	return models.Score{
		Value:  mean,
		Passed: mean >= 0.6 && correct,
		Reason: strings.Join(reasons, "; "),
	}
}
