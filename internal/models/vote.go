package models

import "time"

// Vote is a participant's membership row in a session. Value is nil until
// the participant picks a card; a row exists from join until leave.
type Vote struct {
	SessionCode   string    `json:"session_code"`
	ParticipantID string    `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	Value         *string   `json:"value"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasValue reports whether the participant has picked a card this round.
func (v Vote) HasValue() bool {
	return v.Value != nil && *v.Value != ""
}
