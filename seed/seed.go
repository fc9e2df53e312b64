package seed

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/manifest"
)

//go:embed defaults
var bundled embed.FS

// Target is the store a Source installs into.
type Target interface {
	Exists(ctx context.Context, id string) (bool, error)
	Put(ctx context.Context, p *promptreg.Prompt) error
}

// Report lists the ids an Install copied and the ids it left alone because they were present.
type Report struct {
	Copied  []string
	Skipped []string
}

// Source holds default prompts parsed at construction. No mutex: read-only after New.
type Source struct {
	prompts map[string]*promptreg.Prompt
	ids     []string
}

// New walks fsys under root and parses every manifest (.json, .yaml, .yml).
// Markdown content files are read through the manifests that reference them.
func New(fsys fs.FS, root string) (*Source, error) {
	s := &Source{prompts: make(map[string]*promptreg.Prompt)}
	err := fs.WalkDir(fsys, root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := manifest.FormatFor(name); !ok {
			return nil
		}
		p, err := manifest.ParseFS(fsys, name)
		if err != nil {
			return fmt.Errorf("seed: %s: %w", name, err)
		}
		if _, dup := s.prompts[p.ID]; dup {
			return fmt.Errorf("seed: %s: duplicate prompt id %q", name, p.ID)
		}
		s.prompts[p.ID] = p
		s.ids = append(s.ids, p.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(s.ids)
	return s, nil
}

// Bundled returns the default prompts compiled into the binary.
func Bundled() (*Source, error) {
	return New(bundled, "defaults")
}

// Open loads defaults from dir when it exists and falls back to the bundled set otherwise.
func Open(dir string) (*Source, error) {
	if dir != "" {
		info, err := os.Stat(dir)
		switch {
		case err == nil && info.IsDir():
			return New(os.DirFS(dir), ".")
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("seed: stat %q: %w", dir, err)
		}
	}
	return Bundled()
}

// IDs returns the sorted ids of all default prompts.
func (s *Source) IDs() []string { return slices.Clone(s.ids) }

// Get returns a copy of the default prompt with the given id.
func (s *Source) Get(id string) (*promptreg.Prompt, bool) {
	p, ok := s.prompts[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Install copies every default prompt that dst does not already hold.
// Existing prompts are never overwritten.
func (s *Source) Install(ctx context.Context, dst Target) (Report, error) {
	var rep Report
	for _, id := range s.ids {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		exists, err := dst.Exists(ctx, id)
		if err != nil {
			return rep, err
		}
		if exists {
			rep.Skipped = append(rep.Skipped, id)
			continue
		}
		if err := dst.Put(ctx, s.prompts[id].Clone()); err != nil {
			return rep, fmt.Errorf("seed: install %q: %w", id, err)
		}
		rep.Copied = append(rep.Copied, id)
	}
	return rep, nil
}
