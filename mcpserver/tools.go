package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/registry"
)

// Tool names.
const (
	ToolAddPrompt          = "add_prompt"
	ToolGetPromptFile      = "get_prompt_file_content"
	ToolUpdatePrompt       = "update_prompt"
	ToolDeletePrompt       = "delete_prompt"
	ToolFilterPromptsByTag = "filter_prompts_by_tags"
	ToolListPrompts        = "list_prompts"
	ToolLoadDefaults       = "load_default_prompts"
)

const noMatchesText = "No active prompts found matching all specified tags."

// listItem is the JSON shape of list_prompts and filter_prompts_by_tags entries.
type listItem struct {
	promptreg.Summary
	Source registry.Source `json:"source"`
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(ToolAddPrompt,
		mcp.WithDescription("Adds a new prompt to the project directory."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Unique prompt id, used as the file name.")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Template text with {{variable}} placeholders.")),
		mcp.WithString("description", mcp.Description("Short description of the prompt.")),
		tagsProperty("Tags for filtering."),
		variablesProperty(),
		mcp.WithObject("metadata", mcp.Description("Free-form metadata.")),
	), s.logged(ToolAddPrompt, s.handleAdd))

	s.mcp.AddTool(mcp.NewTool(ToolGetPromptFile,
		mcp.WithDescription("Returns the JSON document of the active version of a prompt."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Prompt id.")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.logged(ToolGetPromptFile, s.handleGet))

	s.mcp.AddTool(mcp.NewTool(ToolUpdatePrompt,
		mcp.WithDescription("Updates the active version of a prompt. The result is written to the project directory."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Prompt id.")),
		mcp.WithString("content", mcp.Description("New template text.")),
		mcp.WithString("description", mcp.Description("New description.")),
		tagsProperty("Replacement tags."),
		variablesProperty(),
		mcp.WithObject("metadata", mcp.Description("Replacement metadata.")),
	), s.logged(ToolUpdatePrompt, s.handleUpdate))

	s.mcp.AddTool(mcp.NewTool(ToolDeletePrompt,
		mcp.WithDescription("Deletes a prompt from the project directory. A global default with the same id becomes active again."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Prompt id.")),
		mcp.WithDestructiveHintAnnotation(true),
	), s.logged(ToolDeletePrompt, s.handleDelete))

	s.mcp.AddTool(mcp.NewTool(ToolFilterPromptsByTag,
		mcp.WithDescription("Lists active prompts that carry all of the given tags."),
		tagsProperty("Tags every returned prompt must carry.", mcp.Required()),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.logged(ToolFilterPromptsByTag, s.handleFilter))

	s.mcp.AddTool(mcp.NewTool(ToolListPrompts,
		mcp.WithDescription("Lists every active prompt with the directory it resolves from."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.logged(ToolListPrompts, s.handleList))

	s.mcp.AddTool(mcp.NewTool(ToolLoadDefaults,
		mcp.WithDescription("Copies the bundled default prompts into the user-global defaults directory. Existing files are kept."),
	), s.logged(ToolLoadDefaults, s.handleLoadDefaults))
}

func tagsProperty(desc string, opts ...mcp.PropertyOption) mcp.ToolOption {
	opts = append([]mcp.PropertyOption{
		mcp.Description(desc),
		mcp.Items(map[string]any{"type": "string"}),
	}, opts...)
	return mcp.WithArray("tags", opts...)
}

func variablesProperty() mcp.ToolOption {
	return mcp.WithObject("variables",
		mcp.Description("Variables by name. Each may have a description and a required flag (default true)."),
		mcp.AdditionalProperties(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"description": map[string]any{"type": "string"},
				"required":    map[string]any{"type": "boolean"},
			},
		}),
	)
}

// logged wraps a handler with a span and per-call logging under a fresh call id.
func (s *Server) logged(name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		callID := uuid.NewString()
		ctx, span := s.tracer.Start(ctx, "mcp.tool "+name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("mcp.tool.name", name),
				attribute.String("promptreg.call_id", callID),
			))
		defer span.End()

		log := s.logger.With(zap.String("tool", name), zap.String("call_id", callID))
		start := time.Now()
		res, err := h(ctx, req)
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("tool call failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		case res != nil && res.IsError:
			span.SetStatus(codes.Error, "tool error result")
			log.Info("tool call rejected", zap.Duration("elapsed", time.Since(start)))
		default:
			log.Debug("tool call done", zap.Duration("elapsed", time.Since(start)))
		}
		return res, err
	}
}

// failure turns caller errors into tool error results and passes the rest through.
func failure(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, errInvalidArgument),
		errors.Is(err, promptreg.ErrInvalidID),
		errors.Is(err, promptreg.ErrInvalidPrompt),
		errors.Is(err, promptreg.ErrPromptNotFound),
		errors.Is(err, promptreg.ErrPromptExists),
		errors.Is(err, registry.ErrNoTags):
		return mcp.NewToolResultError(err.Error()), nil
	default:
		return nil, err
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcpserver: encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := promptFromArgs(req.GetArguments())
	if err != nil {
		return failure(err)
	}
	s.mu.Lock()
	err = s.reg.Add(ctx, p)
	if err == nil {
		s.publishLocked(p)
	}
	s.mu.Unlock()
	if err != nil {
		return failure(err)
	}
	msg := fmt.Sprintf("Prompt '%s' added successfully to project directory.", p.ID)
	s.notify(ctx, msg)
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) handleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req.GetArguments())
	if err != nil {
		return failure(err)
	}
	p, _, err := s.reg.Active(ctx, id)
	if err != nil {
		return failure(err)
	}
	return jsonResult(p)
}

func (s *Server) handleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireID(args)
	if err != nil {
		return failure(err)
	}
	u, err := updateFromArgs(args)
	if err != nil {
		return failure(err)
	}
	s.mu.Lock()
	p, err := s.reg.Update(ctx, id, u)
	if err == nil {
		s.publishLocked(p)
	}
	s.mu.Unlock()
	if err != nil {
		return failure(err)
	}
	msg := fmt.Sprintf("Prompt '%s' updated successfully in project directory.", id)
	s.notify(ctx, msg)
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) handleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req.GetArguments())
	if err != nil {
		return failure(err)
	}
	s.mu.Lock()
	next, err := s.reg.Delete(ctx, id)
	if err == nil {
		if next != nil {
			s.publishLocked(next)
		} else {
			s.unpublishLocked(id)
		}
	}
	s.mu.Unlock()
	if err != nil {
		return failure(err)
	}
	msg := fmt.Sprintf("Prompt '%s' deleted successfully from project directory.", id)
	if next != nil {
		msg += " The user-global default is now active."
	}
	s.notify(ctx, msg)
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) handleFilter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, _, err := optionalStrings(req.GetArguments(), "tags")
	if err != nil {
		return failure(err)
	}
	entries, err := s.reg.Filter(ctx, tags)
	if err != nil {
		return failure(err)
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText(noMatchesText), nil
	}
	return jsonResult(listItems(entries))
}

func (s *Server) handleList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.reg.List(ctx)
	if err != nil {
		return failure(err)
	}
	return jsonResult(listItems(entries))
}

func (s *Server) handleLoadDefaults(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.seed == nil {
		return mcp.NewToolResultError("no default prompt source is configured"), nil
	}
	dst := s.reg.Global()
	if dst == nil {
		dst = s.reg.Project()
	}
	rep, err := s.seed.Install(ctx, dst)
	if err != nil {
		return nil, err
	}
	if err := s.Sync(ctx); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Default prompts loaded into %s.\nCopied: %d prompt(s): %s\nSkipped (already present): %d prompt(s): %s",
		dst.Dir(), len(rep.Copied), joinOrNone(rep.Copied), len(rep.Skipped), joinOrNone(rep.Skipped))
	s.notify(ctx, fmt.Sprintf("Default prompts loaded: %d copied, %d skipped.", len(rep.Copied), len(rep.Skipped)))
	return mcp.NewToolResultText(msg), nil
}

func listItems(entries []registry.Entry) []listItem {
	out := make([]listItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, listItem{Summary: e.Prompt.Summary(), Source: e.Source})
	}
	return out
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ", ")
}
