// Package manifest parses prompt source definitions. A definition is either a
// complete prompt document, or metadata (JSON or YAML) whose contentFile field
// names a markdown file next to it that supplies the template text.
package manifest
