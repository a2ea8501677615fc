package llm

import (
	"fmt"

	"docintake/internal/config"
	"docintake/internal/domain"
	"docintake/internal/port"
)

// ProviderFactory creates a FieldExtractor whose fields are attributed to source.
type ProviderFactory func(cfg *config.LLMProviderConfig, source domain.FieldSource) (port.FieldExtractor, error)

// registry of provider factories, populated explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewExtractor creates a FieldExtractor from a provider config using the registered factory.
func NewExtractor(cfg *config.LLMProviderConfig, source domain.FieldSource) (port.FieldExtractor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	return factory(cfg, source)
}

// Build assembles the configured tiers into one extractor. The primary and
// secondary tiers run side by side; the tertiary tier backs up the primary.
// Every tier is throttled by limiter. It returns nil, nil when no tier is configured.
func Build(cfg *config.LLMConfig, limiter *Limiter) (port.FieldExtractor, error) {
	primaryCfg := cfg.PrimaryConfig()
	if primaryCfg == nil {
		return nil, nil
	}
	primary, err := NewExtractor(primaryCfg, domain.FieldSourceLLMPrimary)
	if err != nil {
		return nil, fmt.Errorf("primary llm: %w", err)
	}
	primary = Throttle(primary, limiter, primaryCfg.Provider)

	if tCfg := cfg.TertiaryConfig(); tCfg != nil {
		tertiary, err := NewExtractor(tCfg, domain.FieldSourceLLMPrimary)
		if err != nil {
			return nil, fmt.Errorf("tertiary llm: %w", err)
		}
		primary = NewFallbackExtractor(
			[]port.FieldExtractor{primary, Throttle(tertiary, limiter, tCfg.Provider)},
			[]string{primaryCfg.Provider, tCfg.Provider},
		)
	}

	sCfg := cfg.SecondaryConfig()
	if sCfg == nil {
		return primary, nil
	}
	secondary, err := NewExtractor(sCfg, domain.FieldSourceLLMSecondary)
	if err != nil {
		return nil, fmt.Errorf("secondary llm: %w", err)
	}
	return NewFanOutExtractor(
		[]port.FieldExtractor{primary, Throttle(secondary, limiter, sCfg.Provider)},
		[]string{"primary", "secondary"},
	), nil
}
