package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", config.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
	assert.Equal(t, 30*time.Second, config.CallTimeout())
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{Models: map[ModelTier]string{TierLite: "fallback-model"}}
	assert.Equal(t, "fallback-model", config.GetModel(TierAdvanced))

	config = &Config{Models: map[ModelTier]string{TierStandard: "std", TierAdvanced: ""}}
	assert.Equal(t, "std", config.GetModel(TierAdvanced))

	assert.Equal(t, "", (&Config{}).GetModel(TierAdvanced))
}

func TestWithModel_DoesNotMutateOriginal(t *testing.T) {
	original := DefaultConfig()
	pinned := original.WithModel(TierAdvanced, "gemini-exp")

	assert.Equal(t, "gemini-exp", pinned.GetModel(TierAdvanced))
	assert.Equal(t, "gemini-2.5-pro", original.GetModel(TierAdvanced))
	assert.Equal(t, original.Timeout, pinned.Timeout)
}

func TestCallTimeout(t *testing.T) {
	var nilConfig *Config
	assert.Equal(t, DefaultTimeout, nilConfig.CallTimeout())
	assert.Equal(t, 5*time.Second, (&Config{Timeout: 5 * time.Second}).CallTimeout())
}
