package emotion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	analysis "github.com/zhouzirui/mood-story/backend/internal/analysis/emotion"
)

const openAIMaxOutputTokens = 64

type openAIBackend struct {
	client *openai.Client
	model  string
	format responses.ResponseFormatTextConfigUnionParam
}

func newOpenAIBackend(opts OpenAIOptions) (*openAIBackend, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("openai emotion model is not set")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(clientOpts...)

	schema, err := generateSchema[classifierPayload]()
	if err != nil {
		return nil, fmt.Errorf("build classifier schema: %w", err)
	}

	return &openAIBackend{
		client: &client,
		model:  opts.Model,
		format: responses.ResponseFormatTextConfigUnionParam{
			OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
				Name:        "EmotionLabel",
				Schema:      schema,
				Strict:      openai.Bool(true),
				Description: openai.String("Dominant emotion of the text"),
				Type:        "json_schema",
			},
		},
	}, nil
}

func (b *openAIBackend) classify(ctx context.Context, text string) (analysis.Label, error) {
	params := responses.ResponseNewParams{
		Model:           b.model,
		MaxOutputTokens: openai.Int(openAIMaxOutputTokens),
		Instructions:    openai.String("Classify the dominant emotion of the user's text."),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: b.format,
		},
	}

	resp, err := b.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai responses: %w", err)
	}

	var out classifierPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.OutputText())), &out); err != nil {
		return "", fmt.Errorf("unmarshal classifier output: %w", err)
	}
	return analysis.Normalize(out.Emotion), nil
}

func generateSchema[T any]() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	b, err := reflector.Reflect(v).MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	ensureStrictObject(m)
	return m, nil
}

// ensureStrictObject marks every object closed and all of its properties
// required, which strict structured output demands.
func ensureStrictObject(schema map[string]any) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]any); ok {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		for _, prop := range props {
			if m, ok := prop.(map[string]any); ok {
				ensureStrictObject(m)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		ensureStrictObject(items)
	}
}
