// Package mcp exposes the broker's tool-call surface over the Model Context
// Protocol: interactive_feedback (the blocking rendezvous) and
// get_system_info.
package mcp

import (
	"context"
	"log"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/FeedbackForge/internal/domain/feedback"
	"github.com/Strob0t/FeedbackForge/internal/service"
)

// FeedbackBroker is the rendezvous surface the interactive_feedback tool
// blocks on.
type FeedbackBroker interface {
	RequestFeedback(ctx context.Context, projectDirectory, summary string, timeout time.Duration) (*feedback.Response, error)
}

// SystemReporter provides the static process report for get_system_info.
type SystemReporter interface {
	SystemInfo() service.SystemInfo
}

// ServerConfig holds MCP server identity and behavior toggles.
type ServerConfig struct {
	Name    string
	Version string

	// AutoRetryHint extends the timeout sentinel text with an explicit
	// re-call hint. Wording only; the timeout behavior is unchanged.
	AutoRetryHint bool
}

// ServerDeps holds the injected collaborators for tool handlers.
type ServerDeps struct {
	Feedback FeedbackBroker
	System   SystemReporter
}

// Server wraps the mcp-go server with FeedbackForge's tools.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
	tools     []mcpserver.ServerTool
}

// instructions is the call-loop contract shown to the AI caller.
const instructions = `Whenever you are about to finish a task or a turn, call interactive_feedback first and wait for the user's review. If the call times out, call interactive_feedback again and keep waiting. Only stop calling it when the user explicitly ends the conversation.`

// NewServer creates the MCP server and registers all tools.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(
			cfg.Name,
			cfg.Version,
			mcpserver.WithToolCapabilities(true),
			mcpserver.WithRecovery(),
			mcpserver.WithInstructions(instructions),
		),
	}
	s.registerTools()
	return s
}

// MCPServer exposes the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer { return s.mcpServer }

// Tools returns the registered tool set.
func (s *Server) Tools() []mcpserver.ServerTool { return s.tools }

// ServeStdio serves the MCP protocol on stdin/stdout until ctx is cancelled
// or stdin closes. Protocol-level errors go to stderr; stdout belongs to the
// transport.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdio := mcpserver.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
