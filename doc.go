// Package promptreg provides the prompt document model of the prompt registry:
// stored prompts with declared variables, identifier validation, and
// {{placeholder}} substitution. Storage lives in filestore, active-version
// resolution in registry, and the MCP tool surface in mcpserver.
package promptreg
