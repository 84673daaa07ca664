package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const storySystemPrompt = "You are a storyteller who writes short, grounded continuations of everyday moments. " +
	"Reply with the story paragraph only."

// ArkStory generates stories with a chat model instead of the public text service.
type ArkStory struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkStory compiles the prompt template and chat model into one chain.
func NewArkStory(ctx context.Context, chatModel model.ChatModel) (*ArkStory, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is nil")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(storySystemPrompt),
		schema.UserMessage("{instruction}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile story chain: %w", err)
	}
	return &ArkStory{chain: runnable}, nil
}

// GenerateStory runs the chain for one instruction.
func (a *ArkStory) GenerateStory(ctx context.Context, instruction string) (string, error) {
	msg, err := a.chain.Invoke(ctx, map[string]any{"instruction": instruction})
	if err != nil {
		return "", &StoryGenerationError{Cause: fmt.Errorf("failed to run story chain: %w", err)}
	}
	if msg == nil {
		return "", &StoryGenerationError{Cause: ErrEmptyStory}
	}

	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return "", &StoryGenerationError{Cause: ErrEmptyStory}
	}
	return text, nil
}
