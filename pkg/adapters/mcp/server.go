// Package mcp exposes the engine to AI agents as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/promptdown"
	"github.com/aretw0/promptdown/internal/sanitize"
	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/aretw0/promptdown/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names.
const (
	RenderTool       = "render_prompt"
	PlaceholdersTool = "list_placeholders"
)

// RenderArgs are the arguments of the render_prompt tool.
type RenderArgs struct {
	Path      string         `json:"path"`
	Variables map[string]any `json:"variables,omitempty"`
	Section   string         `json:"section,omitempty"`
	Strict    *bool          `json:"strict,omitempty"`
}

// PlaceholderArgs are the arguments of the list_placeholders tool.
type PlaceholderArgs struct {
	Path    string `json:"path"`
	Section string `json:"section,omitempty"`
	Shallow bool   `json:"shallow,omitempty"`
}

// PlaceholdersResult is the structured output of list_placeholders.
type PlaceholdersResult struct {
	Document     string   `json:"document"`
	Placeholders []string `json:"placeholders"`
}

// ErrorResult is the structured output of a failed tool call.
type ErrorResult struct {
	Error domain.ErrorReport `json:"error"`
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine    ports.PromptEngine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.PromptEngine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: engine,
		logger: logger,
		mcpServer: server.NewMCPServer("promptdown", strings.TrimSpace(promptdown.Version),
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves one client over in/out until in is closed or ctx is done.
// Nothing else may write to out.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}

// SSEHandler returns the /sse and /message endpoints. baseURL is the address
// clients use to reach them.
func (s *Server) SSEHandler(baseURL string) http.Handler {
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sse.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sse.MessageHandler()))
	return mux
}

// ServeSSE serves over Server-Sent Events on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	_, port, _ := net.SplitHostPort(ln.Addr().String())
	httpServer := &http.Server{
		Handler:           s.SSEHandler("http://localhost:" + port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", ln.Addr().String())
		serverErrors <- httpServer.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	renderTool := mcp.NewTool(RenderTool,
		mcp.WithDescription("Render a prompt manifest or component, resolving its includes. Returns the final text of every section."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path, relative to the project root")),
		mcp.WithObject("variables", mcp.Description("Values for the placeholders of the document")),
		mcp.WithString("section", mcp.Description("Render only this section of a manifest")),
		mcp.WithBoolean("strict", mcp.Description("Fail on undefined variables (defaults to the server policy)")),
		mcp.WithOutputSchema[domain.Rendered](),
	)
	s.mcpServer.AddTool(renderTool, mcp.NewTypedToolHandler(s.handleRender))

	placeholdersTool := mcp.NewTool(PlaceholdersTool,
		mcp.WithDescription("List every variable a document may require, following its includes unless shallow is set."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path, relative to the project root")),
		mcp.WithString("section", mcp.Description("Only scan this section of a manifest")),
		mcp.WithBoolean("shallow", mcp.Description("Do not follow includes")),
		mcp.WithOutputSchema[PlaceholdersResult](),
	)
	s.mcpServer.AddTool(placeholdersTool, mcp.NewTypedToolHandler(s.handlePlaceholders))
}

func (s *Server) handleRender(ctx context.Context, _ mcp.CallToolRequest, args RenderArgs) (*mcp.CallToolResult, error) {
	if strings.TrimSpace(args.Path) == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	vars, err := sanitize.Variables(args.Variables)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := s.engine.RenderFile(ctx, ports.RenderRequest{
		Path:      args.Path,
		Variables: vars,
		Strict:    args.Strict,
		Section:   args.Section,
	})
	if err != nil {
		return s.toolError(RenderTool, err), nil
	}

	text, err := out.Join()
	if err != nil {
		return s.toolError(RenderTool, err), nil
	}
	return mcp.NewToolResultStructured(out, text), nil
}

func (s *Server) handlePlaceholders(ctx context.Context, _ mcp.CallToolRequest, args PlaceholderArgs) (*mcp.CallToolResult, error) {
	if strings.TrimSpace(args.Path) == "" {
		return mcp.NewToolResultError("path is required"), nil
	}

	names, err := s.engine.PlaceholdersFile(ctx, ports.PlaceholderRequest{
		Path:    args.Path,
		Section: args.Section,
		Shallow: args.Shallow,
	})
	if err != nil {
		return s.toolError(PlaceholdersTool, err), nil
	}

	sorted := names.Sorted()
	if sorted == nil {
		sorted = []string{}
	}
	return mcp.NewToolResultStructured(
		PlaceholdersResult{Document: args.Path, Placeholders: sorted},
		strings.Join(sorted, "\n"),
	), nil
}

// toolError reports err to the agent as a failed call; protocol errors are
// reserved for transport problems.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	report := domain.ReportError(err)
	s.logger.Debug("MCP tool failed", "tool", tool, "kind", report.Kind, "err", err)

	result := mcp.NewToolResultStructured(ErrorResult{Error: report}, report.Kind+": "+report.Message)
	result.IsError = true
	return result
}
