package models

// Participant identifies the local user. ID is generated once per
// installation and never changes for the lifetime of the local storage.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
