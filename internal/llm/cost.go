package llm

// CostRates are USD prices per 1,000 tokens.
type CostRates struct {
	Per1KInput  float64
	Per1KOutput float64
}

// IsZero reports whether no pricing is configured.
func (r CostRates) IsZero() bool {
	return r.Per1KInput == 0 && r.Per1KOutput == 0
}

// Cost returns the estimated USD cost of a completion.
func (r CostRates) Cost(u Usage) float64 {
	return float64(u.InputTokens)*r.Per1KInput/1000 + float64(u.OutputTokens)*r.Per1KOutput/1000
}

// EstimateTokens approximates a token count as one token per four characters.
func EstimateTokens(s string) int {
	return len(s) / 4
}

// Default per-provider prices, used when config sets none.
var defaultRates = map[string]CostRates{
	"claude":  {Per1KInput: 0.003, Per1KOutput: 0.015},
	"mistral": {Per1KInput: 0.00055, Per1KOutput: 0.00165},
	"openai":  {Per1KInput: 0.0025, Per1KOutput: 0.01},
	"gemini":  {Per1KInput: 0.0003, Per1KOutput: 0.0025},
}

// RatesFor returns configured rates, falling back to the provider default.
func RatesFor(provider string, configured CostRates) CostRates {
	if !configured.IsZero() {
		return configured
	}
	return defaultRates[provider]
}
