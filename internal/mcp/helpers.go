package mcp

import (
	"encoding/json"
	"fmt"

	"talktrace/internal/projection"
	"talktrace/internal/session"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResponseEnvelope is the JSON shape of every successful structured tool answer.
type ResponseEnvelope struct {
	Data     any            `json:"data"`
	Context  map[string]any `json:"context"`
	Guidance []string       `json:"guidance,omitempty"`
}

// AnalysisSummary is the compact view returned by the selection tools.
type AnalysisSummary struct {
	Header         string                `json:"header"`
	Participants   []string              `json:"participants"`
	Cards          []projection.StatCard `json:"stats"`
	MostActiveTime string                `json:"most_active_time"`
	Contribution   []projection.Slice    `json:"contribution,omitempty"`
}

// WrapResponse attaches the session context to data.
func WrapResponse(data any, st session.State, guidance ...string) ResponseEnvelope {
	ctx := map[string]any{
		"participant": st.SelectedParticipant,
		"sequence":    st.LatestSequence,
		"phase":       st.Phase(),
	}
	if st.File != nil {
		ctx["file"] = st.File.Name
	}
	return ResponseEnvelope{Data: data, Context: ctx, Guidance: guidance}
}

func summarize(m projection.ChartModel) AnalysisSummary {
	sum := AnalysisSummary{
		Header:         m.Header,
		Participants:   m.Participants,
		Cards:          m.Cards,
		MostActiveTime: m.MostActiveTime,
	}
	if m.Contribution != nil {
		sum.Contribution = m.Contribution.Slices
	}
	return sum
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return textResult(string(out)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult reports a failed analysis to the model without failing the call.
func errorResult(message string) *mcp.CallToolResult {
	res := textResult(message)
	res.IsError = true
	return res
}
