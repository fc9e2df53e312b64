package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/filestore"
)

// ErrNoTags is returned by Filter when called without tags.
var ErrNoTags = errors.New("registry: at least one tag is required")

// Source identifies the directory an active prompt was resolved from.
type Source string

// Prompt sources in resolution order.
const (
	SourceProject Source = "project"
	SourceGlobal  Source = "global"
)

// Entry is an active prompt together with where it was found.
type Entry struct {
	Prompt *promptreg.Prompt
	Source Source
}

// Registry layers a project store over an optional global defaults store.
type Registry struct {
	project *filestore.Store
	global  *filestore.Store
}

// New creates a Registry. global may be nil, in which case only the project store is used.
// Panics if project is nil.
func New(project, global *filestore.Store) *Registry {
	if project == nil {
		panic("registry: project store must not be nil")
	}
	return &Registry{project: project, global: global}
}

// Project returns the store that receives writes.
func (r *Registry) Project() *filestore.Store { return r.project }

// Global returns the defaults store, or nil.
func (r *Registry) Global() *filestore.Store { return r.global }

// Active returns the active version of id: the project copy if present, else the global default.
// A malformed project copy is reported rather than silently falling back.
func (r *Registry) Active(ctx context.Context, id string) (*promptreg.Prompt, Source, error) {
	p, err := r.project.Get(ctx, id)
	if err == nil {
		return p, SourceProject, nil
	}
	if !errors.Is(err, promptreg.ErrPromptNotFound) || r.global == nil {
		return nil, "", err
	}
	p, err = r.global.Get(ctx, id)
	if err == nil {
		return p, SourceGlobal, nil
	}
	if errors.Is(err, promptreg.ErrPromptNotFound) {
		return nil, "", fmt.Errorf("%w: %q in project or global defaults", promptreg.ErrPromptNotFound, id)
	}
	return nil, "", err
}

// List returns every active prompt sorted by id. Ids present in both directories
// resolve to the project copy. Unreadable files are skipped by the stores.
func (r *Registry) List(ctx context.Context) ([]Entry, error) {
	var projectList, globalList []*promptreg.Prompt
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projectList, err = r.project.List(gctx)
		return err
	})
	if r.global != nil {
		g.Go(func() error {
			var err error
			globalList, err = r.global.List(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	byID := make(map[string]Entry, len(projectList)+len(globalList))
	for _, p := range globalList {
		byID[p.ID] = Entry{Prompt: p, Source: SourceGlobal}
	}
	for _, p := range projectList {
		byID[p.ID] = Entry{Prompt: p, Source: SourceProject}
	}
	out := make([]Entry, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return strings.Compare(a.Prompt.ID, b.Prompt.ID)
	})
	return out, nil
}

// Filter returns the active prompts that carry every tag in tags.
func (r *Registry) Filter(ctx context.Context, tags []string) ([]Entry, error) {
	if len(tags) == 0 {
		return nil, ErrNoTags
	}
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(all))
	for _, e := range all {
		if e.Prompt.HasTags(tags...) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Add writes a new prompt to the project directory.
// Returns ErrPromptExists if the project directory already holds the id;
// a global default with the same id is shadowed, not rejected.
func (r *Registry) Add(ctx context.Context, p *promptreg.Prompt) error {
	if p == nil {
		return fmt.Errorf("%w: nil prompt", promptreg.ErrInvalidPrompt)
	}
	exists, err := r.project.Exists(ctx, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %q in %s", promptreg.ErrPromptExists, p.ID, r.project.Dir())
	}
	return r.project.Put(ctx, p)
}

// Update patches the active version of id and writes the result to the project directory,
// creating a project override when the active version was a global default.
func (r *Registry) Update(ctx context.Context, id string, u promptreg.Update) (*promptreg.Prompt, error) {
	current, _, err := r.Active(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := current.Patch(u)
	if err := r.project.Put(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes id from the project directory and returns the version that is
// active afterwards (a global default), or nil when none remains.
func (r *Registry) Delete(ctx context.Context, id string) (*promptreg.Prompt, error) {
	deleted, err := r.project.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, fmt.Errorf("%w: %q in %s", promptreg.ErrPromptNotFound, id, r.project.Dir())
	}
	next, _, err := r.Active(ctx, id)
	if err != nil {
		if errors.Is(err, promptreg.ErrPromptNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return next, nil
}

// Render resolves the active version of id and substitutes values into it.
func (r *Registry) Render(ctx context.Context, id string, values map[string]string) (string, *promptreg.Prompt, error) {
	p, _, err := r.Active(ctx, id)
	if err != nil {
		return "", nil, err
	}
	text, err := p.Render(values)
	if err != nil {
		return "", p, err
	}
	return text, p, nil
}
