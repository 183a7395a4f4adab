package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"talktrace/internal/projection"
	"talktrace/internal/session"
	"talktrace/internal/visuals"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleSelectChatFile(ctx context.Context, _ *mcp.CallToolRequest, in SelectChatFileInput) (*mcp.CallToolResult, any, error) {
	if in.Path == "" {
		return nil, nil, errors.New("path is required")
	}
	if err := session.CheckTranscriptName(in.Path); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", in.Path, err)
	}
	data, err := s.readFile(in.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read chat file: %w", err)
	}

	log.Info().Str("file", in.Path).Int("bytes", len(data)).Msg("MCP chat file selected")
	if err := s.store.SelectFile(ctx, session.ChatFile{Name: filepath.Base(in.Path), Data: data}); err != nil {
		return nil, nil, err
	}
	return s.settledSummary(ctx,
		"Call 'select_participant' with one of 'participants' to focus on a single member.",
		"Call 'get_analysis' with format 'mermaid' to show the charts.")
}

func (s *Server) handleSelectParticipant(ctx context.Context, _ *mcp.CallToolRequest, in SelectParticipantInput) (*mcp.CallToolResult, any, error) {
	p := session.Participant(in.Participant)
	if p == "" {
		p = session.Overall
	}
	if err := s.store.SelectParticipant(ctx, p); err != nil {
		switch {
		case errors.Is(err, session.ErrNoFile):
			return nil, nil, fmt.Errorf("%w: call 'select_chat_file' first", err)
		case errors.Is(err, session.ErrNoResult):
			return nil, nil, fmt.Errorf("%w: the last analysis failed or has not finished; call 'select_chat_file' again", err)
		}
		return nil, nil, err
	}
	return s.settledSummary(ctx, "Call 'get_analysis' to render the charts for this participant.")
}

func (s *Server) handleGetAnalysis(ctx context.Context, _ *mcp.CallToolRequest, in GetAnalysisInput) (*mcp.CallToolResult, any, error) {
	format := visuals.FormatMermaid
	if in.Format != "" {
		f, err := visuals.ParseFormat(in.Format)
		if err != nil {
			return nil, nil, err
		}
		format = f
	}

	st, err := s.settled(ctx)
	if err != nil {
		return nil, nil, err
	}
	if st.ErrorMessage != "" {
		return errorResult(st.ErrorMessage), nil, nil
	}
	m := projection.Project(st)
	if !m.HasResult() {
		return nil, nil, fmt.Errorf("%w: call 'select_chat_file' first", session.ErrNoFile)
	}

	if format == visuals.FormatHTML {
		path, err := s.writeReport(st, m)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(WrapResponse(map[string]string{"report_path": path}, st,
			"Open the report file in a browser; charts render client-side."))
	}

	var buf bytes.Buffer
	if err := visuals.Render(&buf, format, m, visuals.Options{}); err != nil {
		return nil, nil, err
	}
	return textResult(buf.String()), nil, nil
}

func (s *Server) settled(ctx context.Context) (session.State, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.settleTimeout)
	defer cancel()
	st, err := s.store.WaitSettled(waitCtx)
	if err != nil {
		return st, fmt.Errorf("analysis did not finish: %w", err)
	}
	return st, nil
}

func (s *Server) settledSummary(ctx context.Context, guidance ...string) (*mcp.CallToolResult, any, error) {
	st, err := s.settled(ctx)
	if err != nil {
		return nil, nil, err
	}
	if st.ErrorMessage != "" {
		return errorResult(st.ErrorMessage), nil, nil
	}
	return jsonResult(WrapResponse(summarize(projection.Project(st)), st, guidance...))
}

func (s *Server) writeReport(st session.State, m projection.ChartModel) (string, error) {
	if err := os.MkdirAll(s.reportDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(s.reportDir, fmt.Sprintf("talktrace-%s-%d.html", s.store.ID(), st.LatestSequence))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	if err := visuals.WriteHTML(f, m, visuals.HTMLOptions{Sequence: st.LatestSequence}); err != nil {
		return "", err
	}
	log.Info().Str("path", path).Msg("HTML report written")
	return path, nil
}
