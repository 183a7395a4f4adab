package mcp

import (
	"context"
	"os"
	"time"

	"talktrace/internal/session"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// defaultSettleTimeout bounds how long a selection tool waits for its analysis.
const defaultSettleTimeout = 2 * time.Minute

// Server exposes one analysis session as MCP tools.
type Server struct {
	store         *session.Store
	reportDir     string
	settleTimeout time.Duration
	readFile      func(string) ([]byte, error)

	mcp *mcp.Server
}

// NewServer creates an MCP server bound to store. HTML reports are written to reportDir.
func NewServer(store *session.Store, reportDir, version string) *Server {
	s := &Server{
		store:         store,
		reportDir:     reportDir,
		settleTimeout: defaultSettleTimeout,
		readFile:      os.ReadFile,
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "talktrace",
		Version: version,
	}, nil)
	s.registerTools()
	return s
}

// Serve runs the MCP protocol over stdio until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("session", s.store.ID()).Msg("MCP Server starting Stdio loop")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
