package engine

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"talktrace/internal/analysis"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestGenerate_Deterministic(t *testing.T) {
	cfg := GeneratorConfig{Scenario: "mild", Seed: 42, Now: fixedNow}
	a := Generate(cfg, analysis.Overall)
	b := Generate(cfg, analysis.Overall)
	require.Equal(t, a, b)
	require.Equal(t, []string{"Overall", "Alice", "Bob", "Carol"}, a.Users)
	require.Len(t, a.MonthlyTimeline, 6)
	require.Len(t, a.MostActiveUsersPercent, 3)
	require.NotNil(t, a.Stats.LinksShared)
}

func TestGenerate_ParticipantIsSmallerThanOverall(t *testing.T) {
	cfg := GeneratorConfig{Scenario: "mild", Seed: 7, Now: fixedNow}
	overall := Generate(cfg, analysis.Overall)
	bob := Generate(cfg, "Bob")
	require.Less(t, bob.Stats.TotalMessages, overall.Stats.TotalMessages)
	require.Empty(t, bob.MostActiveUsersPercent)
}

func TestGenerate_SparseOmitsOptionalSections(t *testing.T) {
	r := Generate(GeneratorConfig{Scenario: "sparse", Seed: 1, Now: fixedNow}, analysis.Overall)
	require.Nil(t, r.Stats.LinksShared)
	require.Nil(t, r.MonthlyTimeline)
	require.Nil(t, r.ActivityHeatmap)
}

func TestSave_WritesOneFixturePerParticipant(t *testing.T) {
	paths, err := Save(t.TempDir(), "report", GeneratorConfig{Users: []string{"Ann", "Ben"}, Seed: 3, Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, paths, 3)
}

func TestService_ServesValidReports(t *testing.T) {
	ts := httptest.NewServer(NewService(GeneratorConfig{Scenario: "mild", Seed: 9, Now: fixedNow}, 0))
	t.Cleanup(ts.Close)
	client := analysis.NewClient(analysis.Config{BaseURL: ts.URL, Timeout: 5 * time.Second})
	ctx := context.Background()

	up := analysis.Upload{Filename: "chat.txt", Data: []byte("[01/01/24, 10:00:00] Alice: hi"), User: analysis.Overall}
	first, err := client.Analyze(ctx, up)
	require.NoError(t, err)
	require.Equal(t, []string{"Alice", "Bob", "Carol"}, first.Users)

	again, err := client.Analyze(ctx, up)
	require.NoError(t, err)
	require.Equal(t, first.Stats, again.Stats)

	up.User = "Carol"
	carol, err := client.Analyze(ctx, up)
	require.NoError(t, err)
	require.Less(t, carol.Stats.TotalMessages, first.Stats.TotalMessages)
}

func TestService_Errors(t *testing.T) {
	tests := []struct {
		description string
		scenario    string
		upload      analysis.Upload
		wantStatus  int
		wantMessage string
	}{
		{"Should reject non-txt uploads", "mild", analysis.Upload{Filename: "chat.pdf", Data: []byte("x"), User: analysis.Overall}, 400, "Invalid file format"},
		{"Should reject unknown users", "mild", analysis.Upload{Filename: "chat.txt", Data: []byte("x"), User: "Mallory"}, 400, "Unknown user: Mallory"},
		{"Should fail in the failing scenario", "failing", analysis.Upload{Filename: "chat.txt", Data: []byte("x"), User: analysis.Overall}, 500, "Failed to process chat file"},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			ts := httptest.NewServer(NewService(GeneratorConfig{Scenario: tt.scenario, Now: fixedNow}, 0))
			defer ts.Close()
			client := analysis.NewClient(analysis.Config{BaseURL: ts.URL, Timeout: 5 * time.Second})

			_, err := client.Analyze(context.Background(), tt.upload)
			var se *analysis.ServerError
			require.True(t, errors.As(err, &se), "got %v", err)
			require.Equal(t, tt.wantStatus, se.Status)
			require.Equal(t, tt.wantMessage, analysis.Message(err))
		})
	}
}
