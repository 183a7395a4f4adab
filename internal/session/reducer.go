package session

import (
	"errors"

	"talktrace/internal/analysis"

	"github.com/samber/lo"
)

var (
	ErrNoFile             = errors.New("no chat file selected")
	ErrEmptyFileName      = errors.New("chat file has no name")
	ErrNoResult           = errors.New("participants are unknown until the aggregate analysis has completed")
	ErrUnknownParticipant = errors.New("participant is not part of this chat")
	ErrStopped            = errors.New("session store is not running")
)

// Event is a tagged input to Reduce.
type Event interface {
	eventName() string
}

// FileChosen replaces the transcript and restarts the session on the aggregate view.
type FileChosen struct {
	File ChatFile
}

// ParticipantChosen narrows the analysis to one participant, or back to Overall.
type ParticipantChosen struct {
	Participant Participant
}

// RequestSucceeded carries a validated report for Request.
type RequestSucceeded struct {
	Request Request
	Report  *analysis.Report
}

// RequestFailed carries the transport or service error for Request.
type RequestFailed struct {
	Request Request
	Err     error
}

func (FileChosen) eventName() string        { return "file_chosen" }
func (ParticipantChosen) eventName() string { return "participant_chosen" }
func (RequestSucceeded) eventName() string  { return "request_succeeded" }
func (RequestFailed) eventName() string     { return "request_failed" }

// Transition is the outcome of one Reduce call.
type Transition struct {
	State State
	// Dispatch is the request to send, if the event started one.
	Dispatch *Request
	// Stale is set when a response was dropped because a newer request exists.
	Stale bool
}

// Reduce applies ev to st. Sequences come from fence, which must be the
// fence that produced st.LatestSequence. On error st is returned unchanged.
func Reduce(fence *Fence, st State, ev Event) (Transition, error) {
	switch e := ev.(type) {
	case FileChosen:
		if e.File.Name == "" {
			return Transition{State: st}, ErrEmptyFileName
		}
		file := e.File
		next := NewState()
		next.File = &file
		return begin(fence, next, Overall), nil

	case ParticipantChosen:
		if st.File == nil {
			return Transition{State: st}, ErrNoFile
		}
		if st.Result == nil {
			return Transition{State: st}, ErrNoResult
		}
		if e.Participant != Overall && !lo.Contains(st.Result.Participants(), e.Participant) {
			return Transition{State: st}, ErrUnknownParticipant
		}
		// The previous result stays visible until the new response is fenced in.
		return begin(fence, st, e.Participant), nil

	case RequestSucceeded:
		if !fence.IsCurrent(e.Request.Sequence) {
			return Transition{State: st, Stale: true}, nil
		}
		st.Result = &Result{
			Sequence:    e.Request.Sequence,
			Participant: e.Request.Participant,
			Report:      e.Report,
		}
		st.Loading = false
		st.ErrorMessage = ""
		return Transition{State: st}, nil

	case RequestFailed:
		if !fence.IsCurrent(e.Request.Sequence) {
			return Transition{State: st, Stale: true}, nil
		}
		st.Result = nil
		st.Loading = false
		st.ErrorMessage = analysis.Message(e.Err)
		return Transition{State: st}, nil
	}
	return Transition{State: st}, nil
}

// begin marks st as loading for participant and issues the fenced request.
func begin(fence *Fence, st State, participant Participant) Transition {
	req := Request{
		File:        *st.File,
		Participant: participant,
		Sequence:    fence.Next(),
	}
	st.SelectedParticipant = participant
	st.Loading = true
	st.ErrorMessage = ""
	st.LatestSequence = req.Sequence
	return Transition{State: st, Dispatch: &req}
}
