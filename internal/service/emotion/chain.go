package emotion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/zhouzirui/mood-story/backend/internal/analysis/emotion"
)

const emotionSystemPrompt = "You are an emotion classifier. Read the user's text and decide the single dominant emotion. " +
	"Answer with one JSON object only, no other text: " +
	"{{\"emotion\": one of anger, disgust, fear, joy, neutral, sadness, surprise, \"confidence\": number between 0 and 1}}"

const emotionUserPrompt = "Text:\n{text}"

type classifierPayload struct {
	Emotion    string  `json:"emotion" jsonschema:"enum=anger,enum=disgust,enum=fear,enum=joy,enum=neutral,enum=sadness,enum=surprise"`
	Confidence float64 `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

// chainBackend runs a prompt template and a chat model as one eino chain.
type chainBackend struct {
	runnable compose.Runnable[map[string]any, *schema.Message]
}

func newChainBackend(ctx context.Context, chatModel model.ChatModel) (*chainBackend, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is nil")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(emotionSystemPrompt),
		schema.UserMessage(emotionUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}
	return &chainBackend{runnable: runnable}, nil
}

func (b *chainBackend) classify(ctx context.Context, text string) (analysis.Label, error) {
	msg, err := b.runnable.Invoke(ctx, map[string]any{"text": text})
	if err != nil {
		return "", fmt.Errorf("invoke classifier chain: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", errors.New("classifier returned empty output")
	}

	payload, err := parseClassifierOutput(msg.Content)
	if err != nil {
		return "", fmt.Errorf("parse classifier output: %w", err)
	}
	return analysis.Normalize(payload.Emotion), nil
}

// parseClassifierOutput extracts the JSON object from the model reply,
// tolerating text before and after it.
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}
