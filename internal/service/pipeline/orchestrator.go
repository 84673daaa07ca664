package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/mood-story/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mood-story/backend/internal/logging"
	"github.com/zhouzirui/mood-story/backend/internal/model/story"
	"github.com/zhouzirui/mood-story/backend/internal/service/prompt"
)

// Classifier returns the dominant emotion of a prompt.
type Classifier interface {
	Classify(ctx context.Context, text string) (emotion.Label, error)
}

// Gateway reaches the story and image services.
type Gateway interface {
	GenerateStory(ctx context.Context, prompt string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Appender receives finished records.
type Appender interface {
	Append(record story.Record)
}

// promptHolder is implemented by targets that keep the last submitted prompt.
type promptHolder interface {
	SetPrompt(prompt string)
}

// Options tune the orchestrator.
type Options struct {
	// Parallel runs the story and image calls concurrently.
	Parallel bool
}

// Orchestrator runs classify, compose, generate and append for one prompt.
type Orchestrator struct {
	classifier Classifier
	gateway    Gateway
	composer   *prompt.Composer
	parallel   bool
	logger     *logrus.Entry
	now        func() time.Time
}

// New wires an orchestrator. A nil composer uses the static style table.
func New(classifier Classifier, gateway Gateway, composer *prompt.Composer, opts Options) *Orchestrator {
	if composer == nil {
		composer = prompt.NewComposer()
	}
	return &Orchestrator{
		classifier: classifier,
		gateway:    gateway,
		composer:   composer,
		parallel:   opts.Parallel,
		logger:     logging.For("pipeline"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Generate runs the whole pipeline for text and appends exactly one record
// to target on success. On any error nothing is appended.
func (o *Orchestrator) Generate(ctx context.Context, target Appender, text string, observe Observer) (story.Record, error) {
	if strings.TrimSpace(text) == "" {
		return story.Record{}, ErrBlankPrompt
	}
	if holder, ok := target.(promptHolder); ok {
		holder.SetPrompt(text)
	}

	logger := o.logger.WithField("prompt_length", len(text))
	start := o.now()

	observe.notify(StateClassifying)
	label, err := o.classifier.Classify(ctx, text)
	if err != nil {
		logger.WithError(err).Warn("classification failed, falling back to neutral")
		label = emotion.Neutral
	}

	observe.notify(StateComposing)
	prompts := o.composer.Compose(text, label)

	storyText, imageRef, err := o.generate(ctx, prompts, observe)
	if err != nil {
		observe.notify(StateFailed)
		observe.notify(StateIdle)
		logger.WithError(err).WithField("emotion", label).Warn("generation failed")
		return story.Record{}, err
	}

	record := story.Record{
		ID:        uuid.NewString(),
		Mood:      label,
		Input:     text,
		Story:     storyText,
		Image:     imageRef,
		CreatedAt: o.now(),
	}
	target.Append(record)
	observe.notify(StateAppended)
	observe.notify(StateIdle)

	logger.WithFields(logrus.Fields{
		"emotion":  label,
		"record":   record.ID,
		"duration": o.now().Sub(start).String(),
	}).Info("story generated")
	return record, nil
}

func (o *Orchestrator) generate(ctx context.Context, prompts prompt.Prompts, observe Observer) (string, string, error) {
	if !o.parallel {
		observe.notify(StateGeneratingStory)
		storyText, err := o.gateway.GenerateStory(ctx, prompts.Story)
		if err != nil {
			return "", "", err
		}

		observe.notify(StateGeneratingImage)
		imageRef, err := o.gateway.GenerateImage(ctx, prompts.Image)
		if err != nil {
			return "", "", err
		}
		return storyText, imageRef, nil
	}

	var storyText, imageRef string
	eg, egCtx := errgroup.WithContext(ctx)

	observe.notify(StateGeneratingStory)
	eg.Go(func() error {
		text, err := o.gateway.GenerateStory(egCtx, prompts.Story)
		if err != nil {
			return err
		}
		storyText = text
		return nil
	})

	observe.notify(StateGeneratingImage)
	eg.Go(func() error {
		ref, err := o.gateway.GenerateImage(egCtx, prompts.Image)
		if err != nil {
			return err
		}
		imageRef = ref
		return nil
	})

	if err := eg.Wait(); err != nil {
		return "", "", err
	}
	return storyText, imageRef, nil
}

// IsValidation reports whether err rejected the prompt before any work.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Describe returns a short user-facing message for a pipeline error.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if IsValidation(err) {
		return err.Error()
	}
	return fmt.Sprintf("generation failed: %v", err)
}
