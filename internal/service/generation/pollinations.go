package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/mood-story/backend/internal/config"
	"github.com/zhouzirui/mood-story/backend/internal/logging"
)

const maxStoryBytes = 1 << 20

// ErrEmptyStory is returned when the text service answers with no content.
var ErrEmptyStory = errors.New("story service returned empty text")

// Pollinations talks to the public text and image services over plain GET.
// The prompt travels percent-encoded in the URL path.
type Pollinations struct {
	client *http.Client
	cfg    config.GatewayConfig
	logger *logrus.Entry
}

// NewPollinations creates the HTTP client for both services.
func NewPollinations(cfg config.GatewayConfig) *Pollinations {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Pollinations{
		client: &http.Client{Timeout: timeout},
		cfg:    cfg,
		logger: logging.For("pollinations"),
	}
}

// StoryURL returns the request URL for a story prompt.
func (p *Pollinations) StoryURL(prompt string) string {
	return fmt.Sprintf("%s%s?model=%s", p.cfg.StoryEndpoint, url.PathEscape(prompt), url.QueryEscape(p.cfg.StoryModel))
}

// ImageURL returns the image reference for an image prompt.
func (p *Pollinations) ImageURL(prompt string) string {
	return fmt.Sprintf("%s%s?width=%d&height=%d&model=%s&nologo=%t",
		p.cfg.ImageEndpoint,
		url.PathEscape(prompt),
		p.cfg.ImageWidth,
		p.cfg.ImageHeight,
		url.QueryEscape(p.cfg.ImageModel),
		p.cfg.ImageNoLogo,
	)
}

// GenerateStory fetches the continuation text.
func (p *Pollinations) GenerateStory(ctx context.Context, prompt string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.StoryURL(prompt), nil)
	if err != nil {
		return "", &StoryGenerationError{Cause: err}
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return "", &StoryGenerationError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StoryGenerationError{
			Status: resp.StatusCode,
			Cause:  fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(snippet))),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStoryBytes))
	if err != nil {
		return "", &StoryGenerationError{Status: resp.StatusCode, Cause: fmt.Errorf("read body: %w", err)}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", &StoryGenerationError{Status: resp.StatusCode, Cause: ErrEmptyStory}
	}

	p.logger.WithFields(logrus.Fields{
		"length":   len(text),
		"duration": time.Since(start).String(),
	}).Debug("story generated")
	return text, nil
}

// GenerateImage returns the image reference. With probing enabled the URL
// is fetched once to make sure the service renders it.
func (p *Pollinations) GenerateImage(ctx context.Context, prompt string) (string, error) {
	ref := p.ImageURL(prompt)
	if !p.cfg.ImageProbe {
		return ref, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", &ImageGenerationError{Cause: err}
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return "", &ImageGenerationError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ImageGenerationError{Status: resp.StatusCode, Cause: errors.New("unexpected response")}
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(strings.ToLower(ct), "image/") {
		return "", &ImageGenerationError{Status: resp.StatusCode, Cause: fmt.Errorf("unexpected content type %q", ct)}
	}

	p.logger.WithField("duration", time.Since(start).String()).Debug("image probed")
	return ref, nil
}
