package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/skosovsky/promptreg"
)

// ErrContentFile indicates a contentFile reference that cannot be resolved.
var ErrContentFile = errors.New("manifest: content file cannot be resolved")

// Format is the encoding of a manifest file.
type Format int

// Supported manifest encodings.
const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor returns the format for a file name by extension and whether it is a manifest at all.
func FormatFor(name string) (Format, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return 0, false
	}
}

// fileManifest is the manifest shape bound directly to domain types.
type fileManifest struct {
	ID          string                        `json:"id" yaml:"id"`
	Description string                        `json:"description" yaml:"description"`
	Content     *string                       `json:"content" yaml:"content"`
	ContentFile string                        `json:"contentFile" yaml:"contentFile"`
	Tags        []string                      `json:"tags" yaml:"tags"`
	Variables   map[string]promptreg.Variable `json:"variables" yaml:"variables"`
	Metadata    map[string]any                `json:"metadata" yaml:"metadata"`
}

func decode(data []byte, format Format) (*fileManifest, error) {
	var m fileManifest
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	default:
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", promptreg.ErrInvalidPrompt, err)
	}
	return &m, nil
}

// ParseBytes parses a manifest with inline content.
// A manifest that references a contentFile needs ParseFS or ParseFile and fails with ErrContentFile.
func ParseBytes(data []byte, format Format) (*promptreg.Prompt, error) {
	m, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	if m.ContentFile != "" {
		return nil, fmt.Errorf("%w: %q needs a filesystem", ErrContentFile, m.ContentFile)
	}
	return buildPrompt(m, "")
}

// ParseFile reads and parses a manifest file from disk.
func ParseFile(name string) (*promptreg.Prompt, error) {
	return ParseFS(os.DirFS(filepath.Dir(name)), filepath.Base(name))
}

// ParseFS reads and parses a manifest from fs.FS (e.g. embed.FS or os.DirFS).
// contentFile is resolved relative to the manifest's directory within fsys.
func ParseFS(fsys fs.FS, name string) (*promptreg.Prompt, error) {
	format, ok := FormatFor(name)
	if !ok {
		return nil, fmt.Errorf("manifest: unsupported file type %q", name)
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("manifest: read fs: %w", err)
	}
	m, err := decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if m.ContentFile != "" {
		contentPath := path.Join(path.Dir(name), m.ContentFile)
		if !fs.ValidPath(contentPath) || strings.HasPrefix(path.Clean(m.ContentFile), "..") {
			return nil, fmt.Errorf("%w: %q escapes the manifest directory", ErrContentFile, m.ContentFile)
		}
		content, err := fs.ReadFile(fsys, contentPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrContentFile, m.ContentFile, err)
		}
		text := string(content)
		m.Content = &text
	}
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	return buildPrompt(m, stem)
}

func buildPrompt(m *fileManifest, stem string) (*promptreg.Prompt, error) {
	id := m.ID
	if id == "" {
		id = stem
	}
	if err := promptreg.ValidateID(id); err != nil {
		return nil, err
	}
	if m.Content == nil {
		return nil, fmt.Errorf("%w: %s: missing content or contentFile", promptreg.ErrInvalidPrompt, id)
	}
	p := &promptreg.Prompt{
		ID:          id,
		Description: m.Description,
		Content:     *m.Content,
		Tags:        m.Tags,
		Variables:   m.Variables,
		Metadata:    m.Metadata,
	}
	p.Normalize()
	return p, nil
}
