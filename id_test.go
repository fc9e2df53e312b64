package promptreg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	t.Parallel()
	valid := []string{"agentic-coder", "a", "with.dot", "snake_case", "Ünïcode"}
	for _, id := range valid {
		require.NoError(t, ValidateID(id), id)
	}
	invalid := []string{"", ".", "..", "../etc", "a/b", `a\b`, "a..b", "nul\x00", strings.Repeat("x", maxIDLen+1)}
	for _, id := range invalid {
		err := ValidateID(id)
		require.Error(t, err, "%q", id)
		assert.ErrorIs(t, err, ErrInvalidID)
	}
}

func TestIDFromFileName(t *testing.T) {
	t.Parallel()
	id, ok := IDFromFileName("greet.json")
	require.True(t, ok)
	assert.Equal(t, "greet", id)
	_, ok = IDFromFileName("greet.md")
	assert.False(t, ok)
	_, ok = IDFromFileName(".json")
	assert.False(t, ok)
	assert.Equal(t, "greet.json", FileName("greet"))
}
