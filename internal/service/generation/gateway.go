package generation

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/mood-story/backend/internal/config"
)

// StoryGenerator turns a story instruction into text.
type StoryGenerator interface {
	GenerateStory(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator turns an image prompt into an image reference.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Gateway pairs one story and one image generator.
type Gateway struct {
	story StoryGenerator
	image ImageGenerator
}

// NewGateway combines the two generators.
func NewGateway(story StoryGenerator, image ImageGenerator) *Gateway {
	return &Gateway{story: story, image: image}
}

// FromConfig builds the gateway selected by cfg. newChatModel is only
// called when the story provider is ark.
func FromConfig(ctx context.Context, cfg config.GatewayConfig, newChatModel func(context.Context) (model.ChatModel, error)) (*Gateway, error) {
	pollinations := NewPollinations(cfg)

	switch cfg.StoryProvider {
	case "", config.StoryPollinations:
		return NewGateway(pollinations, pollinations), nil
	case config.StoryArk:
		if newChatModel == nil {
			return nil, fmt.Errorf("story provider %q needs a chat model", cfg.StoryProvider)
		}
		chatModel, err := newChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("create story chat model: %w", err)
		}
		story, err := NewArkStory(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		return NewGateway(story, pollinations), nil
	default:
		return nil, fmt.Errorf("unknown story provider %q", cfg.StoryProvider)
	}
}

func (g *Gateway) GenerateStory(ctx context.Context, prompt string) (string, error) {
	return g.story.GenerateStory(ctx, prompt)
}

func (g *Gateway) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return g.image.GenerateImage(ctx, prompt)
}
