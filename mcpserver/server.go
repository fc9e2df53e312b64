package mcpserver

import (
	"context"
	"io"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/skosovsky/promptreg/registry"
	"github.com/skosovsky/promptreg/seed"
)

const (
	defaultName    = "promptreg"
	defaultVersion = "1.0.0"
	tracerName     = "github.com/skosovsky/promptreg/mcpserver"
)

// Server serves a prompt registry over MCP.
type Server struct {
	reg     *registry.Registry
	seed    *seed.Source
	logger  *zap.Logger
	tracer  trace.Tracer
	name    string
	version string
	mcp     *server.MCPServer

	// mu guards registered and serializes tool writes with Sync, so a prompt
	// written by a handler is never seen as stale by a concurrent resync.
	mu         sync.Mutex
	registered map[string]mcp.Prompt
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracerProvider sets the provider for tool and prompt spans.
// Default is the global provider, which is a no-op until one is installed.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithSeed sets the default prompt source used by load_default_prompts.
// Without it the tool reports that no defaults are available.
func WithSeed(src *seed.Source) Option {
	return func(s *Server) {
		s.seed = src
	}
}

// WithServerInfo sets the name and version announced during initialization.
func WithServerInfo(name, version string) Option {
	return func(s *Server) {
		if name != "" {
			s.name = name
		}
		if version != "" {
			s.version = version
		}
	}
}

// New creates a Server with every tool registered. Prompts are registered by Sync.
// Panics if reg is nil.
func New(reg *registry.Registry, opts ...Option) *Server {
	if reg == nil {
		panic("mcpserver: registry must not be nil")
	}
	s := &Server{
		reg:        reg,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
		name:       defaultName,
		version:    defaultVersion,
		registered: make(map[string]mcp.Prompt),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcp = server.NewMCPServer(
		s.name,
		s.version,
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	s.registerTools()
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ServeStdio serves the protocol on in/out until ctx is done or in is closed.
// Transport errors are logged through the server logger.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger.Named("stdio")))
	return stdio.Listen(ctx, in, out)
}

// notify sends an info log notification to the current client session.
// Calls outside a session (tests, watcher) only reach the local log.
func (s *Server) notify(ctx context.Context, msg string) {
	err := s.mcp.SendNotificationToClient(ctx, "notifications/message", map[string]any{
		"level":  "info",
		"logger": s.name,
		"data":   msg,
	})
	if err != nil {
		s.logger.Debug("notification not delivered", zap.String("message", msg), zap.Error(err))
	}
}

const instructions = `This server manages reusable prompt templates.
Prompts live as JSON files in a project directory that overrides a user-global defaults directory.
Use list_prompts or filter_prompts_by_tags to discover prompts, get_prompt_file_content to inspect one,
and add_prompt, update_prompt or delete_prompt to change them. Every prompt is also available
through prompts/get with its variables as arguments.`
