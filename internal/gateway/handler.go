package gateway

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/scrumkit/pokerd/internal/layout"
	"github.com/scrumkit/pokerd/internal/session"
)

// snapshotEvent is the render-ready view pushed to every client whenever
// the controller's snapshot changes.
type snapshotEvent struct {
	Type  string        `json:"type"`
	State session.State `json:"state"`

	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Locale        string `json:"locale"`

	Code     string   `json:"code,omitempty"`
	Story    string   `json:"story,omitempty"`
	Deck     []string `json:"deck,omitempty"`
	Revealed bool     `json:"revealed"`

	OwnVote    *string `json:"own_vote"`
	VotedCount int     `json:"voted_count"`
	TotalCount int     `json:"total_count"`

	Participants []session.ParticipantView `json:"participants"`
	Seats        []layout.Offset           `json:"seats"`

	ShareURL string `json:"share_url,omitempty"`
}

func (m *Manager) encodeSnapshot(snap session.Snapshot) []byte {
	p := m.controller.Participant()
	event := snapshotEvent{
		Type:          "snapshot",
		State:         snap.State,
		ParticipantID: p.ID,
		DisplayName:   p.DisplayName,
		Locale:        m.strings.Locale(),
		Revealed:      snap.Revealed(),
		OwnVote:       snap.OwnVote(p.ID),
		VotedCount:    snap.VotedCount(),
		TotalCount:    snap.TotalCount(),
		Participants:  snap.Participants(),
		Seats:         m.seats(snap.TotalCount()),
	}
	if snap.Session != nil {
		event.Code = snap.Session.Code
		event.Story = snap.Session.Story
		event.Deck = snap.Session.Deck
		event.ShareURL = m.ShareURL(snap.Session.Code)
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal snapshot event")
		return []byte(`{"type":"snapshot","state":"NO_SESSION"}`)
	}
	return data
}

// ShareURL builds the link a participant sends to teammates to join the
// same room.
func (m *Manager) ShareURL(code string) string {
	if code == "" {
		return ""
	}
	return m.config.ShareBaseURL + "/?room=" + url.QueryEscape(code)
}

// HandleConnection upgrades an HTTP request to a presentation client.
func (m *Manager) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if err := m.UpgradeConnection(w, r); err != nil {
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
	}
}

// HandleStats reports how many presentation clients are attached.
func (m *Manager) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"connections":` + strconv.Itoa(m.ConnectionCount()) + `}`))
}

// RegisterRoutes mounts the gateway endpoints on an HTTP mux.
func (m *Manager) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", m.HandleConnection)
	mux.HandleFunc("/ws/stats", m.HandleStats)
}
