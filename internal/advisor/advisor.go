// Package advisor implements the optional LLM-backed decision service for
// the automated player. It proposes a single move per turn snapshot; every
// failure mode surfaces as an error so the caller can fall back to the
// built-in heuristic.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/kimchunsik17/yacht-online/internal/game/bot"
	"github.com/kimchunsik17/yacht-online/internal/game/scoring"
)

// DefaultModel is the model used when configuration does not name one.
const DefaultModel = "claude-sonnet-4-5"

const maxResponseTokens = 256

// Advisor asks a language model for the automated player's next move. It
// implements bot.Decider.
type Advisor struct {
	client  anthropic.Client
	model   anthropic.Model
	timeout time.Duration
	logger  *zap.Logger
}

// New constructs an Advisor, or nil when apiKey is empty — a nil Advisor
// means the caller should use the heuristic alone. A zero timeout leaves
// request deadlines to the caller's context.
func New(apiKey, model string, timeout time.Duration, logger *zap.Logger) *Advisor {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   anthropic.Model(model),
		timeout: timeout,
		logger:  logger,
	}
}

// Decide implements bot.Decider by prompting the model with the turn
// snapshot and parsing its JSON reply.
//
// Postcondition: a nil error implies the decision parsed cleanly; legality
// against the live state is still the caller's check.
func (a *Advisor) Decide(ctx context.Context, v bot.View) (bot.Decision, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	prompt := buildPrompt(v)

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: maxResponseTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return bot.Decision{}, fmt.Errorf("advisor request: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	decision, err := ParseDecision(text.String())
	if err != nil {
		a.logger.Warn("advisor reply unparseable", zap.Error(err))
		return bot.Decision{}, err
	}
	return decision, nil
}

// wireDecision is the JSON reply schema the prompt asks for.
type wireDecision struct {
	Action   string `json:"action"`
	Keep     []int  `json:"keep_indices"`
	Category string `json:"category"`
}

// ParseDecision extracts a decision from a model reply. Code fences around
// the JSON are tolerated; anything else is an error.
func ParseDecision(reply string) (bot.Decision, error) {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var wire wireDecision
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return bot.Decision{}, fmt.Errorf("parsing advisor reply: %w", err)
	}

	switch wire.Action {
	case "roll":
		return bot.Decision{Action: bot.ActionRoll, Keep: wire.Keep}, nil
	case "select_category":
		c := scoring.Category(wire.Category)
		if !scoring.Valid(c) {
			return bot.Decision{}, fmt.Errorf("advisor named unknown category %q", wire.Category)
		}
		return bot.Decision{Action: bot.ActionSelect, Category: c}, nil
	default:
		return bot.Decision{}, fmt.Errorf("advisor named unknown action %q", wire.Action)
	}
}

// buildPrompt renders the turn snapshot and the reply contract.
func buildPrompt(v bot.View) string {
	var b strings.Builder
	b.WriteString("You are playing the dice game Yacht. Decide the next move.\n\n")
	fmt.Fprintf(&b, "Dice: %v\n", v.Dice.Slice())
	fmt.Fprintf(&b, "Rolls remaining this turn: %d\n", v.RollsLeft)

	b.WriteString("Open categories and their scores for the current dice:\n")
	for _, c := range scoring.Categories() {
		if s, ok := v.Potentials[c]; ok {
			fmt.Fprintf(&b, "  %s: %d\n", string(c), s)
		}
	}

	var taken []string
	for c, s := range v.Ledger {
		if s != nil {
			taken = append(taken, fmt.Sprintf("%s=%d", string(c), *s))
		}
	}
	sort.Strings(taken)
	if len(taken) > 0 {
		fmt.Fprintf(&b, "Already scored: %s\n", strings.Join(taken, ", "))
	}

	b.WriteString("\nReply with JSON only, no prose. Either\n")
	b.WriteString(`  {"action":"roll","keep_indices":[0,2]}` + "\n")
	b.WriteString("to reroll (keep_indices lists dice positions 0-4 to hold), or\n")
	b.WriteString(`  {"action":"select_category","category":"Full House"}` + "\n")
	b.WriteString("to end the turn by scoring a category.\n")
	if v.RollsLeft == 0 {
		b.WriteString("No rolls remain: you must select a category.\n")
	}
	return b.String()
}
