package config

import (
	"sync"
	"time"
)

var (
	llmOnce   sync.Once
	llmConfig *LLMConfig
)

// LLMConfig configures the OpenAI-compatible chat endpoint used for
// document analysis. An empty APIKey disables analysis.
type LLMConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// MaxInputChars bounds how much document text goes into the prompt.
	MaxInputChars int
	Timeout       time.Duration
}

func GetLLMConfig() *LLMConfig {
	llmOnce.Do(func() {
		loadDotEnv()
		llmConfig = LoadLLMConfig(osLookup)
	})
	return llmConfig
}

func LoadLLMConfig(env Lookup) *LLMConfig {
	return &LLMConfig{
		APIKey:        env("OPENAI_API_KEY"),
		BaseURL:       env("OPENAI_BASE_URL"),
		Model:         envString(env, "OPENAI_MODEL", "gpt-4o-mini"),
		MaxTokens:     envInt(env, "OPENAI_MAX_TOKENS", 1024),
		MaxInputChars: envInt(env, "LLM_MAX_INPUT_CHARS", 8000),
		Timeout:       envDuration(env, "LLM_TIMEOUT", 60*time.Second),
	}
}
