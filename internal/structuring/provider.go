package structuring

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"google.golang.org/genai"

	"pdf2slides/internal/config"
)

const claudeMaxTokens = 4096

// NewChatModel builds the eino chat model for the named provider.
func NewChatModel(ctx context.Context, provider string, provCfg config.ProviderConfig) (ChatModel, error) {
	if provCfg.APIKey == "" {
		return nil, fmt.Errorf("api key for provider %s not configured", provider)
	}
	switch provider {
	case "gemini":
		modelName := provCfg.Model
		if modelName == "" {
			modelName = config.DefaultGeminiModel
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  provCfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini chat model: %w", err)
		}
		return cm, nil
	case "openai":
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai chat model: %w", err)
		}
		return cm, nil
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		cm, err := claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: claudeMaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create claude chat model: %w", err)
		}
		return cm, nil
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
}
