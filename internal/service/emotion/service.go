package emotion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/sirupsen/logrus"

	analysis "github.com/zhouzirui/mood-story/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mood-story/backend/internal/logging"
)

// Provider names accepted by Config.Provider.
const (
	ProviderArk       = "ark"
	ProviderOpenAI    = "openai"
	ProviderHeuristic = "heuristic"
)

// ErrEmptyLabel is returned when a backend answers without a label.
var ErrEmptyLabel = errors.New("classifier returned empty label")

// ClassificationError wraps any backend failure.
type ClassificationError struct {
	Provider string
	Cause    error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("emotion classification via %s failed: %v", e.Provider, e.Cause)
}

func (e *ClassificationError) Unwrap() error {
	return e.Cause
}

// OpenAIOptions configures the OpenAI backend.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Config selects the classifier backend.
type Config struct {
	Provider string
	// NewChatModel builds the Ark chat model on first use.
	NewChatModel func(ctx context.Context) (model.ChatModel, error)
	OpenAI       OpenAIOptions
}

type backend interface {
	classify(ctx context.Context, text string) (analysis.Label, error)
}

// Service classifies the dominant emotion of a prompt. The backend is built
// once, on the first call, and is read-only afterwards.
type Service struct {
	cfg    Config
	logger *logrus.Entry

	once    sync.Once
	backend backend
	initErr error
}

// NewService creates the classifier. Nothing expensive happens here.
func NewService(cfg Config) *Service {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderHeuristic
	}
	cfg.Provider = provider

	return &Service{
		cfg:    cfg,
		logger: logging.For("emotion").WithField("provider", provider),
	}
}

// Provider returns the backend name.
func (s *Service) Provider() string {
	return s.cfg.Provider
}

// Classify returns the single dominant label for text. Every failure is a
// *ClassificationError.
func (s *Service) Classify(ctx context.Context, text string) (analysis.Label, error) {
	s.once.Do(func() {
		s.backend, s.initErr = s.build(context.WithoutCancel(ctx))
		if s.initErr != nil {
			s.logger.WithError(s.initErr).Error("classifier init failed")
			return
		}
		s.logger.Info("classifier ready")
	})
	if s.initErr != nil {
		return "", &ClassificationError{Provider: s.cfg.Provider, Cause: s.initErr}
	}

	label, err := s.backend.classify(ctx, text)
	if err == nil && label == "" {
		err = ErrEmptyLabel
	}
	if err != nil {
		return "", &ClassificationError{Provider: s.cfg.Provider, Cause: err}
	}

	s.logger.WithField("emotion", label).Debug("classified")
	return label, nil
}

func (s *Service) build(ctx context.Context) (backend, error) {
	switch s.cfg.Provider {
	case ProviderArk:
		if s.cfg.NewChatModel == nil {
			return nil, errors.New("ark chat model factory not configured")
		}
		chatModel, err := s.cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("create chat model: %w", err)
		}
		return newChainBackend(ctx, chatModel)
	case ProviderOpenAI:
		return newOpenAIBackend(s.cfg.OpenAI)
	case ProviderHeuristic:
		return heuristicBackend{}, nil
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", s.cfg.Provider)
	}
}

type heuristicBackend struct{}

func (heuristicBackend) classify(_ context.Context, text string) (analysis.Label, error) {
	return analysis.Analyze(text).Emotion, nil
}
