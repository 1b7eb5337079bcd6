// Package llm wraps the external text generation service used by the interviewer,
// the evaluator and the action item synthesizer.
package llm

import "time"

// ModelTier selects a model by how much reasoning a call needs.
type ModelTier string

const (
	// TierLite is the cheapest model; no component defaults to it
	TierLite ModelTier = "lite"
	// TierStandard drives interview turns and per-dimension action items
	TierStandard ModelTier = "standard"
	// TierAdvanced scores dimensions at completion
	TierAdvanced ModelTier = "advanced"
)

// Provider identifies the backing generation service.
type Provider string

// ProviderGemini is the only provider wired today.
const ProviderGemini Provider = "gemini"

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 30 * time.Second

// Config holds model routing and call limits.
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Timeout     time.Duration
	Temperature float32
}

// DefaultConfig returns the Gemini defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Timeout:     DefaultTimeout,
		Temperature: 0.4,
	}
}

// GetModel returns the model name for a tier, falling back to standard then lite.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok && model != "" {
		return model
	}
	for _, fallback := range []ModelTier{TierStandard, TierLite} {
		if model, ok := c.Models[fallback]; ok && model != "" {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of the config with tier pinned to model.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := *c
	out.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return &out
}

// CallTimeout returns the configured ceiling or DefaultTimeout when unset.
func (c *Config) CallTimeout() time.Duration {
	if c == nil || c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
