package story

import "time"

// SessionSummary is the public view of a session.
type SessionSummary struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	CurrentPrompt string    `json:"currentPrompt"`
	HistoryLength int       `json:"historyLength"`
}
