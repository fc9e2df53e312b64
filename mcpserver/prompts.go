package mcpserver

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/skosovsky/promptreg"
)

// Sync publishes every active prompt and drops registrations whose prompt is gone.
// Only new or changed definitions are re-added, so an unchanged resync sends no
// list_changed notifications. Safe to call concurrently with tool handlers.
func (s *Server) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.reg.List(ctx)
	if err != nil {
		return fmt.Errorf("mcpserver: sync: %w", err)
	}
	active := make(map[string]struct{}, len(entries))
	var changed []server.ServerPrompt
	for _, e := range entries {
		active[e.Prompt.ID] = struct{}{}
		if sp, ok := s.pendingLocked(e.Prompt); ok {
			changed = append(changed, sp)
		}
	}
	if len(changed) > 0 {
		s.mcp.AddPrompts(changed...)
	}
	var stale []string
	for id := range s.registered {
		if _, ok := active[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		slices.Sort(stale)
		s.mcp.DeletePrompts(stale...)
		for _, id := range stale {
			delete(s.registered, id)
		}
	}
	s.logger.Info("prompts synced",
		zap.Int("active", len(active)), zap.Int("changed", len(changed)), zap.Strings("removed", stale))
	return nil
}

// Registered returns the sorted ids currently published as MCP prompts.
func (s *Server) Registered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.registered))
}

// publishLocked registers p unless the same definition is already published. Caller holds s.mu.
func (s *Server) publishLocked(p *promptreg.Prompt) {
	if sp, ok := s.pendingLocked(p); ok {
		s.mcp.AddPrompts(sp)
	}
}

// unpublishLocked removes the registration of id if there is one. Caller holds s.mu.
func (s *Server) unpublishLocked(id string) {
	if _, ok := s.registered[id]; !ok {
		return
	}
	s.mcp.DeletePrompts(id)
	delete(s.registered, id)
}

// pendingLocked records the definition of p and returns it when it differs from
// the published one. Caller holds s.mu and must add the returned prompt.
func (s *Server) pendingLocked(p *promptreg.Prompt) (server.ServerPrompt, bool) {
	def := promptDefinition(p)
	if prev, ok := s.registered[p.ID]; ok && reflect.DeepEqual(prev, def) {
		return server.ServerPrompt{}, false
	}
	s.registered[p.ID] = def
	return server.ServerPrompt{Prompt: def, Handler: s.promptHandler(p.ID)}, true
}

// promptDefinition describes p with one argument per variable, in name order.
func promptDefinition(p *promptreg.Prompt) mcp.Prompt {
	desc := p.Description
	if desc == "" {
		desc = "Prompt: " + p.ID
	}
	opts := []mcp.PromptOption{mcp.WithPromptDescription(desc)}
	for _, name := range slices.Sorted(maps.Keys(p.Variables)) {
		v := p.Variables[name]
		var argOpts []mcp.ArgumentOption
		if v.Description != "" {
			argOpts = append(argOpts, mcp.ArgumentDescription(v.Description))
		}
		if v.IsRequired() {
			argOpts = append(argOpts, mcp.RequiredArgument())
		}
		opts = append(opts, mcp.WithArgument(name, argOpts...))
	}
	return mcp.NewPrompt(p.ID, opts...)
}

// promptHandler renders the version of id that is active when the request arrives,
// so edits made after registration are picked up without re-registering.
func (s *Server) promptHandler(id string) server.PromptHandlerFunc {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		ctx, span := s.tracer.Start(ctx, "mcp.prompt "+id,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("mcp.prompt.name", id),
				attribute.Int("mcp.prompt.arguments", len(req.Params.Arguments)),
			))
		defer span.End()

		text, p, err := s.reg.Render(ctx, id, req.Params.Arguments)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.logger.Warn("prompt render failed", zap.String("prompt", id), zap.Error(err))
			return nil, err
		}
		return mcp.NewGetPromptResult(p.Description, []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		}), nil
	}
}
