package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/internal/schema"
)

const (
	defaultFileMode = 0o644
	defaultDirMode  = 0o755
)

// Store reads and writes prompt files in a single directory.
// Concurrent readers are safe; writes replace files atomically via rename.
type Store struct {
	dir       string
	fileMode  fs.FileMode
	logger    *zap.Logger
	validator *schema.Validator
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for skipped files. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithValidator sets the schema validator applied on read and write.
func WithValidator(v *schema.Validator) Option {
	return func(s *Store) { s.validator = v }
}

// WithFileMode sets the permission bits of written files. Default 0644.
func WithFileMode(mode fs.FileMode) Option {
	return func(s *Store) { s.fileMode = mode }
}

// New creates a Store rooted at dir. The directory is not created until EnsureDir or Put.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:      dir,
		fileMode: defaultFileMode,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = schema.MustNew()
	}
	return s
}

// Dir returns the directory the store is rooted at.
func (s *Store) Dir() string { return s.dir }

// EnsureDir creates the store directory and parents. An existing directory is not an error.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, defaultDirMode); err != nil {
		return fmt.Errorf("filestore: create directory %q: %w", s.dir, err)
	}
	return nil
}

func (s *Store) path(id string) (string, error) {
	if err := promptreg.ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, promptreg.FileName(id)), nil
}

// Get reads the prompt with the given id.
// Returns ErrPromptNotFound if the file does not exist and ErrInvalidPrompt if it cannot be decoded.
func (s *Store) Get(ctx context.Context, id string) (*promptreg.Prompt, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is built from a validated id
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q in %s", promptreg.ErrPromptNotFound, id, s.dir)
		}
		return nil, fmt.Errorf("filestore: read %q: %w", path, err)
	}
	return s.decode(id, data)
}

func (s *Store) decode(id string, data []byte) (*promptreg.Prompt, error) {
	if err := s.validator.ValidateJSON(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", promptreg.ErrInvalidPrompt, id, err)
	}
	var p promptreg.Prompt
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", promptreg.ErrInvalidPrompt, id, err)
	}
	if p.ID != id {
		s.logger.Debug("prompt id differs from file name, using file name",
			zap.String("file_id", id), zap.String("document_id", p.ID))
		p.ID = id
	}
	p.Normalize()
	return &p, nil
}

// Exists reports whether a file for id is present.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	path, err := s.path(id)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("filestore: stat %q: %w", path, err)
}

// Put validates and writes p, replacing any existing file with the same id.
func (s *Store) Put(ctx context.Context, p *promptreg.Prompt) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if p == nil {
		return fmt.Errorf("%w: nil prompt", promptreg.ErrInvalidPrompt)
	}
	path, err := s.path(p.ID)
	if err != nil {
		return err
	}
	doc := p.Clone()
	doc.Normalize()
	if err := s.validator.ValidateValue(doc); err != nil {
		return fmt.Errorf("%w: %s: %w", promptreg.ErrInvalidPrompt, p.ID, err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", promptreg.ErrInvalidPrompt, p.ID, err)
	}
	if err := s.EnsureDir(); err != nil {
		return err
	}
	return writeFileAtomic(path, data, s.fileMode)
}

func writeFileAtomic(path string, data []byte, mode fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: write %q: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: chmod %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close %q: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("filestore: rename to %q: %w", path, err)
	}
	return nil
}

// Delete removes the file for id. Returns false, nil when there was nothing to delete.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	path, err := s.path(id)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("filestore: delete %q: %w", path, err)
	}
	return true, nil
}

// IDs returns the sorted ids of all prompt files. A missing directory yields no ids.
func (s *Store) IDs(ctx context.Context) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("filestore: list %q: %w", s.dir, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := promptreg.IDFromFileName(e.Name()); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// List returns every readable prompt sorted by id. Files that cannot be read or
// decoded are logged and skipped.
func (s *Store) List(ctx context.Context) ([]*promptreg.Prompt, error) {
	ids, err := s.IDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*promptreg.Prompt, 0, len(ids))
	for _, id := range ids {
		p, err := s.Get(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("skipping unreadable prompt file",
				zap.String("dir", s.dir), zap.String("id", id), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
