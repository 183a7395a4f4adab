// Package session holds the analysis session controller: the single state
// record for one chat analysis, the reducer that moves it between states and
// the store loop that sequences requests to the analysis service.
package session

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"

	"talktrace/internal/analysis"
)

// Participant names a chat member, or Overall for the aggregate view.
type Participant string

const Overall Participant = analysis.Overall

// ChatFile is the uploaded transcript. It is never modified after selection.
type ChatFile struct {
	Name string
	Data []byte
}

// ErrNotTranscript rejects uploads that are not exported .txt transcripts.
var ErrNotTranscript = errors.New("only .txt chat exports are accepted")

// CheckTranscriptName applies the extension filter used by every upload surface.
func CheckTranscriptName(name string) error {
	if !strings.EqualFold(filepath.Ext(name), ".txt") {
		return ErrNotTranscript
	}
	return nil
}

// MarshalJSON reports the payload size instead of the payload.
func (f ChatFile) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name string `json:"name"`
		Size int    `json:"size"`
	}{f.Name, len(f.Data)})
}

// Request is one dispatch: what was asked and under which sequence.
type Request struct {
	File        ChatFile
	Participant Participant
	Sequence    uint64
}

// Result is an accepted report together with the request it answers.
type Result struct {
	Sequence    uint64           `json:"sequence"`
	Participant Participant      `json:"participant"`
	Report      *analysis.Report `json:"report"`
}

// Participants returns the chat members known from the report.
func (r *Result) Participants() []Participant {
	out := make([]Participant, 0, len(r.Report.Users))
	for _, u := range r.Report.Users {
		out = append(out, Participant(u))
	}
	return out
}

// Phase is the coarse session status derived from State.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// State is the authoritative session record. Presentation layers read copies
// of it and never mutate it.
type State struct {
	File                *ChatFile   `json:"file,omitempty"`
	SelectedParticipant Participant `json:"selected_participant"`
	Result              *Result     `json:"result,omitempty"`
	Loading             bool        `json:"loading"`
	ErrorMessage        string      `json:"error_message,omitempty"`
	LatestSequence      uint64      `json:"latest_sequence"`
}

// NewState returns the empty session record.
func NewState() State {
	return State{SelectedParticipant: Overall}
}

// Phase reports where the session is in Idle -> Loading -> Ready | Error.
func (s State) Phase() Phase {
	switch {
	case s.File == nil:
		return PhaseIdle
	case s.Loading:
		return PhaseLoading
	case s.ErrorMessage != "":
		return PhaseError
	default:
		return PhaseReady
	}
}
