package trivia

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Section is one block of the agent instruction. Overridable by a file
// named "<key>.md" in the prompt overrides directory.
type Section struct {
	Key  string
	Body string
}

const rulesSection = `## Secret Trivia Game Rules

You are the host of a secret trivia game. Your job is to answer trivia
questions using secret knowledge that only you possess.

### How to Play

1. Read the question and work out which secret is being asked for.
2. Check your secret knowledge below.
3. Give the exact secret answer.
4. Be concise - just the answer, no lengthy explanations.

### Secret Categories

- Secret Number - a special number with cosmic significance
- Secret Word - a fruity vocabulary item
- Secret Color - a royal hue
- Magic Phrase - words of power from ancient tales

### Important

- Only give hints if explicitly asked.
- If asked about something that is not a secret, say you don't know.`

const hintsSection = `## Hint System

If a player is stuck, you can provide hints using the hint_lookup tool.
Hints give clues without revealing the actual answer.

Available hint categories: number, word, color, phrase`

const diceSection = `## Lucky Dice Mini-Game

Players can roll the lucky dice for bonus points! But there's a rule:
you must pick up the dice before you can throw it.

1. Use pick_up_dice to grab the lucky dice.
2. Use throw_dice to roll it (only after picking it up).
3. Rolling a 6 is extra lucky!

If someone asks to roll the dice, make sure to pick it up first.`

// DefaultSections returns the base instruction sections in render order.
func DefaultSections() []Section {
	return []Section{
		{Key: "rules", Body: rulesSection},
		{Key: "hints", Body: hintsSection},
		{Key: "dice", Body: diceSection},
	}
}

// Skill is a unit of secret knowledge mounted into the instruction.
type Skill struct {
	Name    string
	Content string
}

// LoadSkills scans dir for subdirectories containing a SKILL.md file and
// returns their contents sorted by name. A missing or unreadable directory
// yields no skills.
func LoadSkills(dir string) []Skill {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var skills []Skill
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, e.Name(), "SKILL.md"))
		if err != nil {
			continue
		}
		skills = append(skills, Skill{Name: e.Name(), Content: string(content)})
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills
}

// BuildInstruction renders the agent instruction: the base sections, with
// per-section overrides applied from overridesDir when present, followed by
// any mounted skills.
func BuildInstruction(overridesDir string, skills []Skill) string {
	var b strings.Builder
	for i, s := range DefaultSections() {
		body := s.Body
		if overridesDir != "" {
			if data, err := os.ReadFile(filepath.Join(overridesDir, s.Key+".md")); err == nil {
				body = strings.TrimRight(string(data), "\n")
			}
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(body)
	}
	for _, sk := range skills {
		b.WriteString("\n\n")
		fmt.Fprintf(&b, "## Skill: %s\n\n%s", sk.Name, strings.TrimRight(sk.Content, "\n"))
	}
	return b.String()
}
