package story

import (
	"time"

	"github.com/zhouzirui/mood-story/backend/internal/analysis/emotion"
)

// Record is one complete pipeline result. It is never modified after
// it has been appended to a history.
type Record struct {
	ID        string        `json:"id"`
	Mood      emotion.Label `json:"mood"`
	Input     string        `json:"input"`
	Story     string        `json:"story"`
	Image     string        `json:"image"`
	CreatedAt time.Time     `json:"createdAt"`
}
