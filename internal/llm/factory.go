package llm

import (
	"fmt"

	"docquery/internal/config"
	"docquery/internal/port"
)

// Dependencies are the shared clients providers may need.
type Dependencies struct {
	// Bedrock invokes models hosted on AWS Bedrock in llm.region.
	Bedrock port.ModelInvoker
}

// ProviderFactory creates a Provider from a provider config.
type ProviderFactory func(cfg *config.LLMProviderConfig, deps Dependencies) (Provider, error)

// registry of provider factories, populated by init() in each provider package.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider creates a Provider using the registered factory.
func NewProvider(cfg *config.LLMProviderConfig, deps Dependencies) (Provider, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	return factory(cfg, deps)
}

// NewEngineFromConfig builds an Engine with the provider's retry policy and
// cost rates.
func NewEngineFromConfig(cfg *config.LLMProviderConfig, deps Dependencies) (*Engine, error) {
	p, err := NewProvider(cfg, deps)
	if err != nil {
		return nil, err
	}
	policy := RetryPolicy{MaxRetries: cfg.MaxRetries, Delay: cfg.RetryDelay}
	rates := RatesFor(cfg.Provider, CostRates{Per1KInput: cfg.CostPer1KInput, Per1KOutput: cfg.CostPer1KOutput})
	return NewEngine(p, policy, rates), nil
}

// NewQueryEngine builds the primary engine and, when a secondary provider is
// configured, wraps both in a FallbackEngine.
func NewQueryEngine(cfg *config.LLMConfig, deps Dependencies) (port.StructuredQueryEngine, error) {
	primary, err := NewEngineFromConfig(cfg.PrimaryConfig(), deps)
	if err != nil {
		return nil, fmt.Errorf("primary llm provider: %w", err)
	}

	secCfg := cfg.SecondaryConfig()
	if secCfg == nil {
		return primary, nil
	}
	secondary, err := NewEngineFromConfig(secCfg, deps)
	if err != nil {
		_ = primary.Close()
		return nil, fmt.Errorf("secondary llm provider: %w", err)
	}

	return NewFallbackEngine(
		[]port.StructuredQueryEngine{primary, secondary},
		[]string{primary.Name(), secondary.Name()},
	), nil
}
