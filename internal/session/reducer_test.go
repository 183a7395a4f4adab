package session

import (
	"errors"
	"testing"

	"talktrace/internal/analysis"

	"github.com/stretchr/testify/require"
)

func reportFor(total int, users ...string) *analysis.Report {
	return &analysis.Report{
		Users: users,
		Stats: analysis.Stats{TotalMessages: total},
	}
}

func TestFence_Next(t *testing.T) {
	var f Fence
	if f.Latest() != 0 {
		t.Fatalf("Latest() before first request = %d, want 0", f.Latest())
	}
	if f.IsCurrent(0) {
		t.Errorf("IsCurrent(0) = true before any request")
	}

	for want := uint64(1); want <= 5; want++ {
		if got := f.Next(); got != want {
			t.Errorf("Next() = %d, want %d", got, want)
		}
	}

	tests := []struct {
		seq  uint64
		want bool
	}{
		{5, true},
		{4, false},
		{1, false},
		{6, false},
	}
	for _, tt := range tests {
		if got := f.IsCurrent(tt.seq); got != tt.want {
			t.Errorf("IsCurrent(%d) = %v, want %v", tt.seq, got, tt.want)
		}
	}
}

// readyState builds a settled aggregate session as the reducer would.
func readyState(t *testing.T, f *Fence) State {
	t.Helper()
	tr, err := Reduce(f, NewState(), FileChosen{File: ChatFile{Name: "chat.txt", Data: []byte("a")}})
	require.NoError(t, err)
	tr, err = Reduce(f, tr.State, RequestSucceeded{Request: *tr.Dispatch, Report: reportFor(100, "Alice", "Bob")})
	require.NoError(t, err)
	return tr.State
}

func TestReduce_FileChosen_ResetsEverything(t *testing.T) {
	req := require.New(t)
	var f Fence
	st := readyState(t, &f)

	tr, err := Reduce(&f, st, ParticipantChosen{Participant: "Bob"})
	req.NoError(err)
	tr, err = Reduce(&f, tr.State, RequestFailed{Request: *tr.Dispatch, Err: &analysis.ServerError{Status: 500, Message: "boom"}})
	req.NoError(err)
	req.Equal("boom", tr.State.ErrorMessage)

	tr, err = Reduce(&f, tr.State, FileChosen{File: ChatFile{Name: "other.txt", Data: []byte("b")}})
	req.NoError(err)
	req.Equal(Overall, tr.State.SelectedParticipant)
	req.Nil(tr.State.Result)
	req.Empty(tr.State.ErrorMessage)
	req.True(tr.State.Loading)
	req.Equal(PhaseLoading, tr.State.Phase())
	req.Equal("other.txt", tr.State.File.Name)

	req.NotNil(tr.Dispatch)
	req.Equal(Overall, tr.Dispatch.Participant)
	req.Equal(tr.State.LatestSequence, tr.Dispatch.Sequence)
	req.Equal(uint64(3), tr.Dispatch.Sequence)
}

func TestReduce_FileChosen_RequiresName(t *testing.T) {
	var f Fence
	st := NewState()
	tr, err := Reduce(&f, st, FileChosen{File: ChatFile{Data: []byte("x")}})
	require.ErrorIs(t, err, ErrEmptyFileName)
	require.Equal(t, st, tr.State)
	require.Zero(t, f.Latest())
}

func TestReduce_ParticipantChosen_Preconditions(t *testing.T) {
	var f Fence
	loading, err := Reduce(&f, NewState(), FileChosen{File: ChatFile{Name: "chat.txt"}})
	require.NoError(t, err)

	var g Fence
	ready := readyState(t, &g)

	tests := []struct {
		description string
		fence       *Fence
		state       State
		participant Participant
		wantErr     error
	}{
		{"Should fail without a file", &Fence{}, NewState(), "Alice", ErrNoFile},
		{"Should fail before the aggregate result arrives", &f, loading.State, "Alice", ErrNoResult},
		{"Should fail for a stranger", &g, ready, "Carol", ErrUnknownParticipant},
		{"Should accept a listed participant", &g, ready, "Alice", nil},
		{"Should accept the aggregate view", &g, ready, Overall, nil},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			before := tt.fence.Latest()
			tr, err := Reduce(tt.fence, tt.state, ParticipantChosen{Participant: tt.participant})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, tt.state, tr.State)
				require.Nil(t, tr.Dispatch)
				require.Equal(t, before, tt.fence.Latest())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.participant, tr.State.SelectedParticipant)
			require.True(t, tr.State.Loading)
			require.NotNil(t, tr.State.Result, "previous result stays visible while loading")
			require.Equal(t, tt.participant, tr.Dispatch.Participant)
		})
	}
}

func TestReduce_OutOfOrderResponses(t *testing.T) {
	req := require.New(t)
	var f Fence
	st := readyState(t, &f)

	overall, err := Reduce(&f, st, ParticipantChosen{Participant: Overall})
	req.NoError(err)
	alice, err := Reduce(&f, overall.State, ParticipantChosen{Participant: "Alice"})
	req.NoError(err)

	got, err := Reduce(&f, alice.State, RequestSucceeded{Request: *alice.Dispatch, Report: reportFor(60, "Alice", "Bob")})
	req.NoError(err)
	req.False(got.Stale)

	late, err := Reduce(&f, got.State, RequestSucceeded{Request: *overall.Dispatch, Report: reportFor(100, "Alice", "Bob")})
	req.NoError(err)
	req.True(late.Stale)
	req.Equal(got.State, late.State)

	final := late.State
	req.Equal(Participant("Alice"), final.SelectedParticipant)
	req.Equal(Participant("Alice"), final.Result.Participant)
	req.Equal(60, final.Result.Report.Stats.TotalMessages)
	req.Equal(final.LatestSequence, final.Result.Sequence)
	req.False(final.Loading)

	staleFailure, err := Reduce(&f, final, RequestFailed{Request: *overall.Dispatch, Err: errors.New("late")})
	req.NoError(err)
	req.True(staleFailure.Stale)
	req.Equal(final, staleFailure.State)
}

func TestReduce_RequestFailed_CurrentClearsResult(t *testing.T) {
	tests := []struct {
		description string
		err         error
		want        string
	}{
		{"service message", &analysis.ServerError{Status: 400, Message: "Invalid file format"}, "Invalid file format"},
		{"undecodable body", &analysis.ServerError{Status: 502}, analysis.FallbackMessage},
		{"network", &analysis.NetworkError{Err: errors.New("refused")}, analysis.FallbackMessage},
		{"schema", &analysis.MalformedResponse{Err: errors.New("bad")}, analysis.FallbackMessage},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			var f Fence
			st := readyState(t, &f)
			tr, err := Reduce(&f, st, ParticipantChosen{Participant: "Bob"})
			require.NoError(t, err)

			tr, err = Reduce(&f, tr.State, RequestFailed{Request: *tr.Dispatch, Err: tt.err})
			require.NoError(t, err)
			require.Equal(t, tt.want, tr.State.ErrorMessage)
			require.Nil(t, tr.State.Result)
			require.False(t, tr.State.Loading)
			require.Equal(t, PhaseError, tr.State.Phase())
		})
	}
}

func TestCheckTranscriptName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"chat.txt", true},
		{"WhatsApp Chat with Bob.TXT", true},
		{"chat.zip", false},
		{"txt", false},
		{"", false},
	}
	for _, tt := range tests {
		if err := CheckTranscriptName(tt.name); (err == nil) != tt.ok {
			t.Errorf("CheckTranscriptName(%q) = %v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}
