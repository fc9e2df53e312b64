// Package filestore persists prompts as one indented JSON document per file:
// {dir}/{id}.json. It is the read/write/delete layer under registry and does no
// cross-directory resolution of its own.
package filestore
