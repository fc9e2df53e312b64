// Package mcpserver exposes the prompt registry over the Model Context Protocol
// (mark3labs/mcp-go). It registers the management tools (add_prompt,
// update_prompt, delete_prompt, get_prompt_file_content, list_prompts,
// filter_prompts_by_tags, load_default_prompts) and publishes every active
// prompt as an MCP prompt whose arguments are the prompt's variables.
package mcpserver
