package promptreg

import (
	"fmt"
	"path"
	"strings"
)

// maxIDLen keeps {id}.json within common filename limits.
const maxIDLen = 250

// ValidateID checks that id is safe to use as a filename stem and as a key.
// It must be its own base name: no separators, no "..", no NUL, not "." and not empty.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if len(id) > maxIDLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidID, maxIDLen)
	}
	if id == "." || strings.Contains(id, "..") || strings.ContainsAny(id, "/\\\x00") || path.Base(id) != id {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// FileName returns the file name holding the prompt with the given id.
// Call ValidateID first.
func FileName(id string) string {
	return id + ".json"
}

// IDFromFileName returns the id for a prompt file name and whether name is a prompt file.
func IDFromFileName(name string) (string, bool) {
	id, ok := strings.CutSuffix(name, ".json")
	if !ok || ValidateID(id) != nil {
		return "", false
	}
	return id, true
}
