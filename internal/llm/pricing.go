package llm

// ModelCost holds per-million-token pricing for a model in USD.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost calculates the total USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// LookupCost returns the pricing for a model ID, or nil if unknown.
// OpenRouter slugs resolve through their upstream model ID.
func LookupCost(modelID string) *ModelCost {
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}
	if id, ok := openRouterUpstream[modelID]; ok {
		c := modelCosts[id]
		return &c
	}
	return nil
}

// EstimateCost returns the USD cost of a call, and false when the model
// has no known pricing.
func EstimateCost(modelID string, inputTokens, outputTokens int) (float64, bool) {
	c := LookupCost(modelID)
	if c == nil {
		return 0, false
	}
	return c.Cost(inputTokens, outputTokens), true
}

// modelCosts covers the models reachable through the friendly names.
// Last updated: 2026-02-15.
var modelCosts = map[string]ModelCost{
	"claude-haiku-4-5-20251001": {1, 5},
	"claude-sonnet-4-20250514":  {3, 15},

	"gpt-4.1":     {2, 8},
	"gpt-4o":      {2.5, 10},
	"gpt-4o-mini": {0.15, 0.6},

	"gemini-2.0-flash":      {0.1, 0.4},
	"gemini-2.0-flash-lite": {0.075, 0.3},
	"gemini-2.5-flash":      {0.3, 2.5},
	"gemini-2.5-pro":        {1.25, 10},
}

var openRouterUpstream = map[string]string{
	"google/gemini-2.0-flash-001": "gemini-2.0-flash",
	"anthropic/claude-haiku-4.5":  "claude-haiku-4-5-20251001",
}
