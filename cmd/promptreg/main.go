// Command promptreg serves and manages a prompt template registry.
//
//	promptreg serve                  # MCP server on stdio
//	promptreg list --tag review      # active prompts
//	promptreg render code-review --var diff=@change.diff
//	promptreg build --src default_prompts_data --out ~/.promptregistry/default_prompts
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "promptreg: load .env: %v\n", err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
