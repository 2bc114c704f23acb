package session

import "github.com/scrumkit/pokerd/internal/models"

// State is the controller's position in its session lifecycle.
type State string

const (
	StateNoSession         State = "NO_SESSION"
	StateJoiningOrCreating State = "JOINING_OR_CREATING"
	StateActive            State = "ACTIVE"
	StateLeaving           State = "LEAVING"
)

// Snapshot is the locally cached view of the remote store. It is replaced
// wholesale on every successful refresh and never merged incrementally, so
// it is always wholly one fetch's result.
type Snapshot struct {
	State   State           `json:"state"`
	Session *models.Session `json:"session"`
	Votes   []models.Vote   `json:"votes"`
}

// VoteStatus is the per-participant display state derived from the snapshot.
type VoteStatus string

const (
	// StatusWaiting: not revealed, no pick yet.
	StatusWaiting VoteStatus = "WAITING"
	// StatusVoted: not revealed, pick made; the value stays hidden.
	StatusVoted VoteStatus = "VOTED"
	// StatusNoVote: revealed without a pick; renders as a dash.
	StatusNoVote VoteStatus = "NO_VOTE"
	// StatusRevealed: revealed with a pick; the literal value shows.
	StatusRevealed VoteStatus = "REVEALED"
)

// ParticipantView is one participant's derived display row.
type ParticipantView struct {
	ParticipantID string     `json:"participant_id"`
	DisplayName   string     `json:"display_name"`
	Status        VoteStatus `json:"status"`
	// Value carries the literal pick only when Status is StatusRevealed.
	Value string `json:"value,omitempty"`
}

// OwnVote returns the caller's current pick, or nil before any pick.
func (s Snapshot) OwnVote(participantID string) *string {
	for _, v := range s.Votes {
		if v.ParticipantID == participantID {
			return v.Value
		}
	}
	return nil
}

// VotedCount counts participants with a non-null pick.
func (s Snapshot) VotedCount() int {
	n := 0
	for _, v := range s.Votes {
		if v.HasValue() {
			n++
		}
	}
	return n
}

// TotalCount counts all participants currently in the session.
func (s Snapshot) TotalCount() int {
	return len(s.Votes)
}

// Revealed reports the session's reveal flag; false with no session.
func (s Snapshot) Revealed() bool {
	return s.Session != nil && s.Session.Revealed
}

// Participants derives the display rows, one per vote, in vote-list order.
// Values are only exposed once the session is revealed.
func (s Snapshot) Participants() []ParticipantView {
	revealed := s.Revealed()
	out := make([]ParticipantView, len(s.Votes))
	for i, v := range s.Votes {
		view := ParticipantView{
			ParticipantID: v.ParticipantID,
			DisplayName:   v.DisplayName,
		}
		switch {
		case revealed && v.HasValue():
			view.Status = StatusRevealed
			view.Value = *v.Value
		case revealed:
			view.Status = StatusNoVote
		case v.HasValue():
			view.Status = StatusVoted
		default:
			view.Status = StatusWaiting
		}
		out[i] = view
	}
	return out
}
