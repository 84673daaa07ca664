package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Classifier providers.
const (
	ProviderAuto      = "auto"
	ProviderArk       = "ark"
	ProviderOpenAI    = "openai"
	ProviderHeuristic = "heuristic"
)

// Story providers.
const (
	StoryPollinations = "pollinations"
	StoryArk          = "ark"
)

// Config aggregates every setting of the service.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	AI         AIConfig
	OpenAI     OpenAIConfig
	Classifier ClassifierConfig
	Gateway    GatewayConfig
}

// Load reads configuration from the environment. Nothing is required;
// every value has a default.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	gateway, err := loadGatewayConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: server,
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
		AI: ai,
		OpenAI: OpenAIConfig{
			APIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			BaseURL:      strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
			EmotionModel: getEnvOrDefault("OPENAI_EMOTION_MODEL", "gpt-4o-mini"),
		},
		Gateway: gateway,
	}

	provider := strings.ToLower(getEnvOrDefault("CLASSIFIER_PROVIDER", ProviderAuto))
	switch provider {
	case ProviderAuto, ProviderArk, ProviderOpenAI, ProviderHeuristic:
	default:
		return nil, fmt.Errorf("invalid CLASSIFIER_PROVIDER value: %q", provider)
	}
	cfg.Classifier = ClassifierConfig{Provider: provider}

	return cfg, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// loadServerConfig resolves the listen address from PORT.
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string
	Format string
}

// AIConfig describes the Ark chat model.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether credentials and a model are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

// OpenAIConfig describes the OpenAI classifier backend.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	EmotionModel string
}

// Enabled reports whether an API key is present.
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

// ClassifierConfig selects the emotion classifier backend.
type ClassifierConfig struct {
	Provider string
}

// ResolveProvider turns "auto" into a concrete provider given the
// credentials available.
func (c *Config) ResolveProvider() string {
	if c.Classifier.Provider != ProviderAuto {
		return c.Classifier.Provider
	}
	if c.AI.Enabled() {
		return ProviderArk
	}
	if c.OpenAI.Enabled() {
		return ProviderOpenAI
	}
	return ProviderHeuristic
}

// GatewayConfig describes the two generation services.
type GatewayConfig struct {
	StoryProvider string
	StoryEndpoint string
	StoryModel    string
	ImageEndpoint string
	ImageModel    string
	ImageWidth    int
	ImageHeight   int
	ImageNoLogo   bool
	ImageProbe    bool
	Timeout       time.Duration
	Parallel      bool
}

// DefaultGatewayConfig mirrors the public Pollinations endpoints.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		StoryProvider: StoryPollinations,
		StoryEndpoint: "https://text.pollinations.ai/",
		StoryModel:    "openai",
		ImageEndpoint: "https://image.pollinations.ai/prompt/",
		ImageModel:    "flux",
		ImageWidth:    1024,
		ImageHeight:   768,
		ImageNoLogo:   true,
		ImageProbe:    false,
		Timeout:       90 * time.Second,
	}
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

func loadGatewayConfig() (GatewayConfig, error) {
	cfg := DefaultGatewayConfig()

	cfg.StoryProvider = strings.ToLower(getEnvOrDefault("STORY_PROVIDER", cfg.StoryProvider))
	if cfg.StoryProvider != StoryPollinations && cfg.StoryProvider != StoryArk {
		return GatewayConfig{}, fmt.Errorf("invalid STORY_PROVIDER value: %q", cfg.StoryProvider)
	}
	cfg.StoryEndpoint = getEnvOrDefault("STORY_ENDPOINT", cfg.StoryEndpoint)
	cfg.StoryModel = getEnvOrDefault("STORY_MODEL", cfg.StoryModel)
	cfg.ImageEndpoint = getEnvOrDefault("IMAGE_ENDPOINT", cfg.ImageEndpoint)
	cfg.ImageModel = getEnvOrDefault("IMAGE_MODEL", cfg.ImageModel)

	width, err := parseOptionalIntEnv("IMAGE_WIDTH")
	if err != nil {
		return GatewayConfig{}, err
	}
	if width != nil {
		cfg.ImageWidth = *width
	}

	height, err := parseOptionalIntEnv("IMAGE_HEIGHT")
	if err != nil {
		return GatewayConfig{}, err
	}
	if height != nil {
		cfg.ImageHeight = *height
	}
	if cfg.ImageWidth <= 0 || cfg.ImageHeight <= 0 {
		return GatewayConfig{}, fmt.Errorf("invalid image size %dx%d", cfg.ImageWidth, cfg.ImageHeight)
	}

	if cfg.ImageNoLogo, err = parseBoolEnv("IMAGE_NOLOGO", cfg.ImageNoLogo); err != nil {
		return GatewayConfig{}, err
	}
	if cfg.ImageProbe, err = parseBoolEnv("IMAGE_PROBE", cfg.ImageProbe); err != nil {
		return GatewayConfig{}, err
	}
	if cfg.Parallel, err = parseBoolEnv("GATEWAY_PARALLEL", false); err != nil {
		return GatewayConfig{}, err
	}

	timeout, err := parseOptionalDurationEnv("GATEWAY_TIMEOUT")
	if err != nil {
		return GatewayConfig{}, err
	}
	if timeout != nil {
		cfg.Timeout = *timeout
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseOptionalDurationEnv accepts Go durations ("45s") or plain seconds ("45").
func parseOptionalDurationEnv(key string) (*time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	var d time.Duration
	if seconds, err := strconv.Atoi(value); err == nil {
		d = time.Duration(seconds) * time.Second
	} else if d, err = time.ParseDuration(value); err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("invalid %s value %q: must be positive", key, value)
	}
	return &d, nil
}
