package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"talktrace/internal/analysis"
	"talktrace/internal/mocks"
	"talktrace/internal/session"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type userIs string

func (u userIs) Matches(x any) bool {
	up, ok := x.(analysis.Upload)
	return ok && up.User == string(u)
}

func (u userIs) String() string { return "upload for " + string(u) }

func report(total int) *analysis.Report {
	return &analysis.Report{
		Users:                  []string{"Alice", "Bob"},
		Stats:                  analysis.Stats{TotalMessages: total, TotalWords: 900, MediaShared: 2},
		MostActiveTime:         "21:00",
		MostActiveUsersPercent: []analysis.UserShare{{Name: "Alice", Percent: 60}, {Name: "Bob", Percent: 40}},
		CommonWords:            []analysis.WordCount{{Word: "hi", Count: 10}},
	}
}

// newTestServer wires a running store and returns an MCP client session connected in memory.
func newTestServer(t *testing.T, analyzer session.Analyzer) (*mcp.ClientSession, *Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	store := session.NewStore(analyzer)
	done := make(chan struct{})
	go func() {
		_ = store.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	srv := NewServer(store, t.TempDir(), "test")
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := srv.mcp.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs, srv
}

// call returns the text of a tool answer and whether it was reported as an error.
func call(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return err.Error(), true
	}
	var parts []string
	for _, c := range res.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n"), res.IsError
}

func writeChat(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("[01/01/24, 10:00:00] Alice: hi"), 0644))
	return path
}

func TestTools_Listed(t *testing.T) {
	cs, _ := newTestServer(t, mocks.NewMockAnalyzer(gomock.NewController(t)))
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{"select_chat_file", "select_participant", "get_analysis"}, names)
}

func TestSelectChatFile_ThenParticipant(t *testing.T) {
	ctrl := gomock.NewController(t)
	analyzer := mocks.NewMockAnalyzer(ctrl)
	gomock.InOrder(
		analyzer.EXPECT().Analyze(gomock.Any(), userIs("Overall")).Return(report(100), nil),
		analyzer.EXPECT().Analyze(gomock.Any(), userIs("Bob")).Return(report(40), nil),
	)
	cs, _ := newTestServer(t, analyzer)

	text, isErr := call(t, cs, "select_chat_file", map[string]any{"path": writeChat(t, "chat.txt")})
	require.False(t, isErr, text)

	var env struct {
		Data    AnalysisSummary `json:"data"`
		Context map[string]any  `json:"context"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &env))
	require.Equal(t, "Analysis for: Overall", env.Data.Header)
	require.Equal(t, []string{"Overall", "Alice", "Bob"}, env.Data.Participants)
	require.Equal(t, 100, env.Data.Cards[0].Value)
	require.Len(t, env.Data.Contribution, 2)
	require.Equal(t, "chat.txt", env.Context["file"])

	text, isErr = call(t, cs, "select_participant", map[string]any{"participant": "Bob"})
	require.False(t, isErr, text)
	env.Data = AnalysisSummary{}
	require.NoError(t, json.Unmarshal([]byte(text), &env))
	require.Equal(t, "Analysis for: Bob", env.Data.Header)
	require.Equal(t, 40, env.Data.Cards[0].Value)
	require.Empty(t, env.Data.Contribution)

	text, isErr = call(t, cs, "get_analysis", map[string]any{})
	require.False(t, isErr, text)
	require.Contains(t, text, "## Analysis for: Bob")
	require.Contains(t, text, "- **Total Messages:** 40")
	require.Contains(t, text, "```mermaid")
}

func TestSelectChatFile_Rejections(t *testing.T) {
	cs, _ := newTestServer(t, mocks.NewMockAnalyzer(gomock.NewController(t)))

	text, isErr := call(t, cs, "select_chat_file", map[string]any{"path": writeChat(t, "chat.zip")})
	require.True(t, isErr)
	require.Contains(t, text, ".txt")

	text, isErr = call(t, cs, "select_chat_file", map[string]any{"path": filepath.Join(t.TempDir(), "missing.txt")})
	require.True(t, isErr)
	require.Contains(t, text, "failed to read chat file")

	text, isErr = call(t, cs, "select_participant", map[string]any{"participant": "Alice"})
	require.True(t, isErr)
	require.Contains(t, text, "select_chat_file")
}

func TestSelectChatFile_ServiceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	analyzer := mocks.NewMockAnalyzer(ctrl)
	analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(nil, &analysis.ServerError{Status: 400, Message: "Invalid file format"})
	cs, _ := newTestServer(t, analyzer)

	text, isErr := call(t, cs, "select_chat_file", map[string]any{"path": writeChat(t, "chat.txt")})
	require.True(t, isErr)
	require.Equal(t, "Invalid file format", text)

	text, isErr = call(t, cs, "get_analysis", map[string]any{"format": "table"})
	require.True(t, isErr)
	require.Equal(t, "Invalid file format", text)
}

func TestGetAnalysis_Formats(t *testing.T) {
	ctrl := gomock.NewController(t)
	analyzer := mocks.NewMockAnalyzer(ctrl)
	analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(report(532), nil)
	cs, srv := newTestServer(t, analyzer)

	_, isErr := call(t, cs, "select_chat_file", map[string]any{"path": writeChat(t, "chat.txt")})
	require.False(t, isErr)

	text, isErr := call(t, cs, "get_analysis", map[string]any{"format": "json"})
	require.False(t, isErr, text)
	require.Contains(t, text, `"value": 532`)

	text, isErr = call(t, cs, "get_analysis", map[string]any{"format": "table"})
	require.False(t, isErr, text)
	require.Contains(t, text, "532")

	text, isErr = call(t, cs, "get_analysis", map[string]any{"format": "html"})
	require.False(t, isErr, text)
	var env struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &env))
	path := env.Data["report_path"]
	require.Equal(t, srv.reportDir, filepath.Dir(path))
	html, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(html), "<p>532</p>")

	text, isErr = call(t, cs, "get_analysis", map[string]any{"format": "pdf"})
	require.True(t, isErr)
	require.Contains(t, text, "unknown format")
}
