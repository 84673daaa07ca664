package pipeline

import (
	"context"
	"fmt"

	"github.com/zhouzirui/mood-story/backend/internal/config"
	emotionservice "github.com/zhouzirui/mood-story/backend/internal/service/emotion"
	"github.com/zhouzirui/mood-story/backend/internal/service/generation"
	"github.com/zhouzirui/mood-story/backend/internal/service/prompt"
)

// FromConfig builds the classifier, gateway and orchestrator described by cfg.
func FromConfig(ctx context.Context, cfg *config.Config) (*Orchestrator, *emotionservice.Service, error) {
	classifier := emotionservice.NewService(emotionservice.Config{
		Provider:     cfg.ResolveProvider(),
		NewChatModel: cfg.AI.NewChatModel,
		OpenAI: emotionservice.OpenAIOptions{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.EmotionModel,
		},
	})

	gateway, err := generation.FromConfig(ctx, cfg.Gateway, cfg.AI.NewChatModel)
	if err != nil {
		return nil, nil, fmt.Errorf("build generation gateway: %w", err)
	}

	orch := New(classifier, gateway, prompt.NewComposer(), Options{Parallel: cfg.Gateway.Parallel})
	return orch, classifier, nil
}
