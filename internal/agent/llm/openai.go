package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/feichai0017/correspondence-tracker/config"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

const systemPrompt = "Eres un asistente que extrae datos de documentos oficiales peruanos y responde solo con JSON."

// OpenAIAnalyzer talks to any OpenAI-compatible chat completions endpoint.
type OpenAIAnalyzer struct {
	client    *openai.Client
	model     string
	maxTokens int
	maxChars  int
	timeout   time.Duration
	logger    logger.Logger
}

// NewOpenAIAnalyzer returns an analyzer that reports Configured() false
// when cfg has no API key.
func NewOpenAIAnalyzer(cfg *config.LLMConfig, log logger.Logger) *OpenAIAnalyzer {
	a := &OpenAIAnalyzer{
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		maxChars:  cfg.MaxInputChars,
		timeout:   cfg.Timeout,
		logger:    log,
	}
	if cfg.APIKey == "" {
		return a
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	a.client = &client
	return a
}

func (a *OpenAIAnalyzer) Configured() bool { return a.client != nil }

// Analyze performs a single round trip. Unparseable answers come back as
// *MalformedResponseError.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, text string) (Fields, error) {
	if a.client == nil {
		return Fields{}, ErrNotConfigured
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(BuildPrompt(text, a.maxChars)),
		},
	}
	if a.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(a.maxTokens))
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Fields{}, fmt.Errorf("failed to call chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Fields{}, malformed("la respuesta no contiene opciones")
	}

	a.logger.Debug("LLM answered",
		logger.String("model", resp.Model),
		logger.Int64("total_tokens", resp.Usage.TotalTokens),
		logger.Duration("elapsed", time.Since(start)),
	)
	return ParseFields(resp.Choices[0].Message.Content)
}
