package core

// DefaultTokenBudget bounds the estimated token count of the conversation
// history presented to the model.
const DefaultTokenBudget = 384

// Per-message constants for the approximate token counter: roughly four
// characters per token plus a fixed overhead for role framing.
const (
	charsPerToken      = 4
	perMessageOverhead = 3
)

// EstimateTokens returns the approximate token count of the given messages.
// The estimate is intentionally cheap and deterministic; it does not depend
// on any particular model's tokenizer.
func EstimateTokens(msgs ...Message) int {
	total := 0
	for _, m := range msgs {
		total += perMessageOverhead + (len(m.Content)+charsPerToken-1)/charsPerToken
	}
	return total
}

// Trimmer bounds a conversation history to a token budget by dropping the
// oldest messages first. The most recent user message and the most recent
// assistant message are always preserved, even when they alone exceed the
// budget. Trimming is stable: the same history and budget always yield the
// same result, and trimming an already-trimmed history returns it unchanged.
type Trimmer struct {
	budget int
}

// NewTrimmer creates a Trimmer with the given token budget. Budgets <= 0
// fall back to DefaultTokenBudget.
func NewTrimmer(budget int) *Trimmer {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	return &Trimmer{budget: budget}
}

// Budget returns the configured token budget.
func (t *Trimmer) Budget() int { return t.budget }

// Trim returns a bounded copy of history preserving original order.
func (t *Trimmer) Trim(history []Message) []Message {
	if len(history) == 0 {
		return nil
	}

	lastUser, lastAssistant := -1, -1
	for i := len(history) - 1; i >= 0; i-- {
		switch history[i].Role {
		case RoleUser:
			if lastUser < 0 {
				lastUser = i
			}
		case RoleAssistant:
			if lastAssistant < 0 {
				lastAssistant = i
			}
		}
		if lastUser >= 0 && lastAssistant >= 0 {
			break
		}
	}

	keep := make([]bool, len(history))
	total := 0
	if lastUser >= 0 {
		keep[lastUser] = true
		total += EstimateTokens(history[lastUser])
	}
	if lastAssistant >= 0 {
		keep[lastAssistant] = true
		total += EstimateTokens(history[lastAssistant])
	}

	// Admit messages newest to oldest until one no longer fits, then stop so
	// the retained history is a contiguous suffix rather than a gapped
	// selection of whatever cheap messages happen to fit.
	for i := len(history) - 1; i >= 0; i-- {
		if keep[i] {
			continue
		}
		cost := EstimateTokens(history[i])
		if total+cost > t.budget {
			break
		}
		keep[i] = true
		total += cost
	}

	trimmed := make([]Message, 0, len(history))
	for i, m := range history {
		if keep[i] {
			trimmed = append(trimmed, m)
		}
	}
	return trimmed
}
