package pipeline

// State is a step of one generation.
type State string

const (
	StateIdle            State = "idle"
	StateClassifying     State = "classifying"
	StateComposing       State = "composing"
	StateGeneratingStory State = "generating_story"
	StateGeneratingImage State = "generating_image"
	StateAppended        State = "appended"
	StateFailed          State = "failed"
)

// Observer is told about every state change. It must not block.
type Observer func(State)

func (o Observer) notify(s State) {
	if o != nil {
		o(s)
	}
}

// ValidationError rejects a prompt before any work is done.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrBlankPrompt is the warning shown for an empty or whitespace-only prompt.
var ErrBlankPrompt = &ValidationError{Message: "Please enter a prompt first!"}
