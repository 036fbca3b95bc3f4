package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/FeedbackForge/internal/domain/feedback"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.tools = []mcpserver.ServerTool{
		s.interactiveFeedbackTool(),
		s.getSystemInfoTool(),
	}
	s.mcpServer.AddTools(s.tools...)
}

func (s *Server) interactiveFeedbackTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("interactive_feedback",
		mcplib.WithDescription("Request interactive feedback from the user before finishing a task or turn. "+
			"Present a summary of what was done and wait for the user's review. "+
			"Always call this tool before ending a turn; if it times out, call it again and keep waiting. "+
			"Stop only when the user explicitly says the conversation is over."),
		mcplib.WithString("project_directory",
			mcplib.Required(),
			mcplib.Description("Absolute path of the project directory this feedback concerns"),
		),
		mcplib.WithString("summary",
			mcplib.Required(),
			mcplib.Description("Markdown summary of the changes for the user to review"),
		),
		mcplib.WithNumber("timeout",
			mcplib.DefaultNumber(300),
			mcplib.Description("Seconds to wait for the user before giving up"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleInteractiveFeedback,
	}
}

func (s *Server) getSystemInfoTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_system_info",
		mcplib.WithDescription("Get platform and process information for the feedback server, including its HTTP port"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetSystemInfo,
	}
}

// handleInteractiveFeedback blocks until the human answers or the timeout
// elapses. It never returns a protocol-level error: every failure path
// degrades to a content item so the stdio connection stays alive.
func (s *Server) handleInteractiveFeedback(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Feedback == nil {
		return mcplib.NewToolResultError("feedback broker not configured"), nil
	}
	args := req.GetArguments()

	projectDirectory, ok := args["project_directory"].(string)
	if !ok || projectDirectory == "" {
		return mcplib.NewToolResultError("project_directory is required"), nil
	}
	summary, ok := args["summary"].(string)
	if !ok || summary == "" {
		return mcplib.NewToolResultError("summary is required"), nil
	}

	var timeout time.Duration
	if v, ok := args["timeout"].(float64); ok && v > 0 {
		timeout = time.Duration(v * float64(time.Second))
	}

	resp, err := s.deps.Feedback.RequestFeedback(ctx, projectDirectory, summary, timeout)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("interactive feedback failed", err), nil
	}
	if resp == nil {
		return s.timeoutResult(), nil
	}
	return &mcplib.CallToolResult{Content: feedbackContent(resp)}, nil
}

// timeoutResult is the sentinel returned when no answer arrived in time.
// Distinct from a submitted-but-empty answer.
func (s *Server) timeoutResult() *mcplib.CallToolResult {
	text := "Feedback request cancelled or timed out."
	if s.cfg.AutoRetryHint {
		text += " The user may still be writing a response - call interactive_feedback again to continue waiting."
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: text},
		},
	}
}

// feedbackContent encodes an answer as an ordered content list: text
// block(s) first, then one image block per attachment, MIME-tagged from the
// filename extension.
func feedbackContent(resp *feedback.Response) []mcplib.Content {
	content := []mcplib.Content{
		mcplib.TextContent{Type: "text", Text: resp.Text},
	}

	if len(resp.AttachedPaths) > 0 {
		var b strings.Builder
		b.WriteString("The user attached the following files for you to read:\n")
		for _, p := range resp.AttachedPaths {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		content = append(content, mcplib.TextContent{Type: "text", Text: b.String()})
	}

	for _, img := range resp.Images {
		content = append(content, mcplib.ImageContent{
			Type:     "image",
			Data:     img.Base64Payload,
			MIMEType: feedback.MIMETypeForName(img.Name),
		})
	}

	return content
}

func (s *Server) handleGetSystemInfo(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.System == nil {
		return mcplib.NewToolResultError("system reporter not configured"), nil
	}
	data, err := json.Marshal(s.deps.System.SystemInfo())
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal system info", err), nil
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}, nil
}
