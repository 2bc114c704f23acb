package models

import "time"

// Session represents a shared estimation round, addressed by its room code.
type Session struct {
	Code        string    `json:"code"`
	DisplayName string    `json:"display_name"`
	Deck        []string  `json:"deck"`
	Story       string    `json:"story"`
	Revealed    bool      `json:"revealed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SessionPatch is a partial update to a session. Nil fields are left untouched.
type SessionPatch struct {
	DisplayName *string   `json:"display_name,omitempty"`
	Deck        *[]string `json:"deck,omitempty"`
	Story       *string   `json:"story,omitempty"`
	Revealed    *bool     `json:"revealed,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p SessionPatch) IsEmpty() bool {
	return p.DisplayName == nil && p.Deck == nil && p.Story == nil && p.Revealed == nil
}
