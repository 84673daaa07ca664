package generation

import "fmt"

// StoryGenerationError reports a failed story call.
type StoryGenerationError struct {
	Status int
	Cause  error
}

func (e *StoryGenerationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("story generation failed with status %d: %v", e.Status, e.Cause)
	}
	return fmt.Sprintf("story generation failed: %v", e.Cause)
}

func (e *StoryGenerationError) Unwrap() error {
	return e.Cause
}

// ImageGenerationError reports a failed image call.
type ImageGenerationError struct {
	Status int
	Cause  error
}

func (e *ImageGenerationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("image generation failed with status %d: %v", e.Status, e.Cause)
	}
	return fmt.Sprintf("image generation failed: %v", e.Cause)
}

func (e *ImageGenerationError) Unwrap() error {
	return e.Cause
}
