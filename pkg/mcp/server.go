package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	pillbox "github.com/unowned-ai/pillbox/pkg"
	"github.com/unowned-ai/pillbox/pkg/logging"
	"github.com/unowned-ai/pillbox/pkg/session"
)

type PillboxMCPServer struct {
	mcpServer *server.MCPServer
	session   *session.Session
	logger    *zap.SugaredLogger
}

// NewPillboxMCPServer builds an MCP server exposing every pillbox tool over sess.
// The caller owns sess and its store.
func NewPillboxMCPServer(sess *session.Session, logger *zap.SugaredLogger) *PillboxMCPServer {
	s := server.NewMCPServer(
		"Pillbox MCP Server",
		pillbox.Version,
		server.WithLogging(),
		server.WithRecovery(),
	)

	RegisterPingTool(s)
	RegisterAddMedicineTool(s, sess)
	RegisterListMedicinesTool(s, sess)
	RegisterToggleMedicineTool(s, sess)
	RegisterDeleteMedicineTool(s, sess)
	RegisterTodayScheduleTool(s, sess)
	RegisterCalendarTool(s, sess)
	RegisterHistoryTool(s, sess)
	RegisterClearHistoryTool(s, sess)

	return &PillboxMCPServer{
		mcpServer: s,
		session:   sess,
		logger:    logging.OrNop(logger),
	}
}

// Start runs the stdio event loop until stdin closes.
func (s *PillboxMCPServer) Start() error {
	s.logger.Infow("serving MCP over stdio")
	return server.ServeStdio(s.mcpServer)
}

// MCPRawServer exposes the raw mcp-go server (useful for additional configuration).
func (s *PillboxMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}
