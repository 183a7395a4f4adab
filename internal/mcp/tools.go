package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SelectChatFileInput struct {
	Path string `json:"path" jsonschema:"Absolute path to an exported chat transcript (.txt)"`
}

type SelectParticipantInput struct {
	Participant string `json:"participant" jsonschema:"Exact participant name from the participants list, or Overall for the whole chat"`
}

type GetAnalysisInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: mermaid (default), table, json or html"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "select_chat_file",
		Description: "Load an exported chat transcript and analyze the whole conversation. " +
			"Replaces any previously loaded chat and resets the participant filter to 'Overall'. " +
			"Guidance: read the returned 'participants' before calling 'select_participant'.",
	}, s.handleSelectChatFile)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "select_participant",
		Description: "Narrow the analysis of the loaded chat to one participant, or back to 'Overall'. " +
			"Requires a completed analysis from 'select_chat_file'. " +
			"The message contribution chart is only available for 'Overall'.",
	}, s.handleSelectParticipant)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_analysis",
		Description: "Render the current analysis. 'mermaid' returns Markdown with Mermaid charts, " +
			"'table' plain text, 'json' the chart model, and 'html' writes a standalone report file and returns its path. " +
			"STRICT GUARDRAIL: report numbers exactly as returned; never estimate values the analysis does not contain.",
	}, s.handleGetAnalysis)
}
