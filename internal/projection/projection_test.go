package projection

import (
	"testing"

	"talktrace/internal/analysis"
	"talktrace/internal/session"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleReport() *analysis.Report {
	return &analysis.Report{
		Users:          []string{"Alice", "Bob"},
		Stats:          analysis.Stats{TotalMessages: 532, TotalWords: 4100, MediaShared: 7, LinksShared: ptr(3)},
		MostActiveTime: "21:00",
		MostActiveUsersPercent: []analysis.UserShare{
			{Name: "Alice", Percent: 61.25}, {Name: "Bob", Percent: 38.75},
		},
		CommonWords: []analysis.WordCount{{Word: "hello", Count: 12}, {Word: "ok", Count: 9}},
		SentimentTimeline: []analysis.SentimentRow{
			{MonthYear: "Jan-2024", Positive: 4, Negative: 1},
			{MonthYear: "Feb-2024", Positive: 2, Negative: 3, Neutral: 5},
		},
		AvgMessageLength: []analysis.MessageLength{{User: "Alice", AvgLength: 7.333333333333333}},
		EmojiStats:       []analysis.EmojiCount{{Emoji: "😂", Count: 5}},
		Wordcloud:        ptr("data:image/png;base64,AAAA"),
		WeeklyActivity:   []analysis.DayCount{{Day: "Monday", Count: 3}},
		ActivityHeatmap: map[string]map[string]float64{
			"10-11": {"Sunday": 1, "Monday": 2},
			"09-10": {"Monday": 4, "Holiday": 1},
		},
	}
}

func readyState(participant session.Participant) session.State {
	st := session.NewState()
	st.File = &session.ChatFile{Name: "chat.txt", Data: []byte("x")}
	st.SelectedParticipant = participant
	st.LatestSequence = 2
	st.Result = &session.Result{Sequence: 2, Participant: participant, Report: sampleReport()}
	return st
}

func TestColor(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "#0088FE"},
		{5, "#FFD700"},
		{6, "#0088FE"},
		{13, "#00C49F"},
		{-1, "#FFD700"},
	}
	for _, tt := range tests {
		if got := Color(tt.index); got != tt.want {
			t.Errorf("Color(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestProject_WithoutResult(t *testing.T) {
	m := Project(session.NewState())
	if m.Phase != session.PhaseIdle {
		t.Errorf("Phase = %q, want %q", m.Phase, session.PhaseIdle)
	}
	if m.HasResult() || m.Contribution != nil || m.Cards != nil {
		t.Errorf("idle projection carries report data: %+v", m)
	}
	if len(m.Participants) != 1 || m.Participants[0] != analysis.Overall {
		t.Errorf("Participants = %v, want [Overall]", m.Participants)
	}

	st := session.NewState()
	st.File = &session.ChatFile{Name: "chat.txt"}
	st.ErrorMessage = analysis.FallbackMessage
	m = Project(st)
	if m.Phase != session.PhaseError || m.Error != analysis.FallbackMessage {
		t.Errorf("Project(error state) = phase %q error %q", m.Phase, m.Error)
	}
}

func TestProject_CopiesValuesExactly(t *testing.T) {
	req := require.New(t)
	m := Project(readyState(session.Overall))

	req.Equal("Analysis for: Overall", m.Header)
	req.Equal([]StatCard{
		{Label: "Total Messages", Value: 532},
		{Label: "Total Words", Value: 4100},
		{Label: "Media Shared", Value: 7},
		{Label: "Links Shared", Value: 3},
	}, m.Cards)
	req.Equal("21:00", m.MostActiveTime)
	req.Equal([]string{"Overall", "Alice", "Bob"}, m.Participants)
	req.Equal([]float64{7.333333333333333}, m.AvgLength.Series[0].Values)
	req.Equal([]float64{12, 9}, m.CommonWords.Series[0].Values)
	req.Equal("data:image/png;base64,AAAA", m.Wordcloud)
}

func TestProject_ContributionOnlyForOverall(t *testing.T) {
	overall := Project(readyState(session.Overall))
	require.NotNil(t, overall.Contribution)
	require.Equal(t, []Slice{
		{Label: "Alice", Value: 61.25, Color: "#0088FE"},
		{Label: "Bob", Value: 38.75, Color: "#00C49F"},
	}, overall.Contribution.Slices)

	bob := Project(readyState("Bob"))
	require.Nil(t, bob.Contribution)
	require.Equal(t, "Analysis for: Bob", bob.Header)
	require.NotNil(t, bob.CommonWords)
}

func TestProject_SentimentMissingLabelsAreZero(t *testing.T) {
	m := Project(readyState(session.Overall))
	require.Equal(t, []string{"Jan-2024", "Feb-2024"}, m.Sentiment.Labels)

	got := map[string][]float64{}
	for _, s := range m.Sentiment.Series {
		got[s.Name] = s.Values
	}
	require.Equal(t, []float64{4, 2}, got["Positive"])
	require.Equal(t, []float64{1, 3}, got["Negative"])
	require.Equal(t, []float64{0, 5}, got["Neutral"])
	require.Equal(t, PositiveColor, m.Sentiment.Series[0].Color)
}

func TestProject_OptionalSections(t *testing.T) {
	m := Project(readyState(session.Overall))
	require.Nil(t, m.Monthly)
	require.Nil(t, m.Daily)
	require.Equal(t, []string{"Monday"}, m.WeeklyActivity.Labels)

	require.Equal(t, []string{"09-10", "10-11"}, m.Heatmap.Rows)
	require.Equal(t, []string{"Monday", "Sunday", "Holiday"}, m.Heatmap.Columns)
	require.Equal(t, [][]float64{{4, 0, 1}, {2, 1, 0}}, m.Heatmap.Cells)
}

func TestProject_Idempotent(t *testing.T) {
	st := readyState("Alice")
	require.Equal(t, Project(st), Project(st))

	again := readyState("Alice")
	again.LatestSequence = 7
	again.Result.Sequence = 7
	require.Equal(t, Project(st), Project(again), "sequence numbers do not leak into the projection")
}

func TestXYChart_Max(t *testing.T) {
	c := &XYChart{Series: []Series{{Values: []float64{1, 4}}, {Values: []float64{3}}}}
	if got := c.Max(); got != 4 {
		t.Errorf("Max() = %v, want 4", got)
	}
	if got := (&XYChart{}).Max(); got != 0 {
		t.Errorf("Max() on empty chart = %v, want 0", got)
	}
}
