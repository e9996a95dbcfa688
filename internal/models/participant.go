package models

// Participant is a person who can pay for or owe a share of an expense.
// Records reference participants by ID; they are never copied into records.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string `json:"id"`

	// Name is the display name (e.g., "Alice").
	Name string `json:"name"`

	// Color is an optional display color, used only by clients.
	Color string `json:"color,omitempty"`

	// CreatedAt is the Unix timestamp when the participant was created.
	CreatedAt int64 `json:"created_at"`
}

// Category groups expenses. DefaultParticipants is the fallback participant
// set for records in this category that declare none.
type Category struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	DefaultParticipants []string `json:"default_participants"`
	CreatedAt           int64    `json:"created_at"`
}
