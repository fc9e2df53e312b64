package promptreg

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariable_IsRequired(t *testing.T) {
	t.Parallel()
	yes := true
	assert.True(t, Variable{}.IsRequired())
	assert.True(t, Variable{Required: &yes}.IsRequired())
	assert.False(t, Variable{Required: Optional()}.IsRequired())
}

func TestPrompt_Normalize_JSONShape(t *testing.T) {
	t.Parallel()
	p := &Prompt{ID: "p", Content: "c"}
	p.Normalize()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p","content":"c","tags":[],"variables":{},"metadata":{}}`, string(data))
}

func TestPrompt_UnmarshalDiskLayout(t *testing.T) {
	t.Parallel()
	data := []byte(`{
  "id": "agentic-coder-enhanced",
  "description": "Expert engineer",
  "content": "Goal: {{user_goal_or_request}}",
  "tags": ["cli", "collaboration"],
  "variables": {
    "user_goal_or_request": {"description": "The goal", "required": true},
    "project_memory_file_name": {"description": "Memory file", "required": false}
  },
  "metadata": {"version": "1.1-templated"}
}`)
	var p Prompt
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, []string{"user_goal_or_request"}, p.RequiredVariables())
	assert.Equal(t, "1.1-templated", p.Metadata["version"])
}

func TestPrompt_Clone_Independent(t *testing.T) {
	t.Parallel()
	p := &Prompt{
		ID:        "p",
		Tags:      []string{"a"},
		Variables: map[string]Variable{"x": {Required: Optional()}},
		Metadata:  map[string]any{"k": "v"},
	}
	c := p.Clone()
	c.Tags[0] = "changed"
	*c.Variables["x"].Required = true
	c.Metadata["k"] = "other"
	assert.Equal(t, "a", p.Tags[0])
	assert.False(t, p.Variables["x"].IsRequired())
	assert.Equal(t, "v", p.Metadata["k"])
	assert.Nil(t, (*Prompt)(nil).Clone())
}

func TestPrompt_HasTags(t *testing.T) {
	t.Parallel()
	p := &Prompt{Tags: []string{"cli", "go", "review"}}
	assert.True(t, p.HasTags("cli"))
	assert.True(t, p.HasTags("go", "cli"))
	assert.False(t, p.HasTags("cli", "python"))
	assert.True(t, p.HasTags())
}

func TestPrompt_Patch(t *testing.T) {
	t.Parallel()
	base := &Prompt{
		ID:          "p",
		Description: "old",
		Content:     "old {{x}}",
		Tags:        []string{"a"},
		Variables:   map[string]Variable{"x": {}},
		Metadata:    map[string]any{"v": 1.0},
	}
	content := "new {{y}}"
	got := base.Patch(Update{
		Content:      &content,
		Variables:    map[string]Variable{"y": {Description: "why"}},
		SetVariables: true,
	})
	want := &Prompt{
		ID:          "p",
		Description: "old",
		Content:     "new {{y}}",
		Tags:        []string{"a"},
		Variables:   map[string]Variable{"y": {Description: "why"}},
		Metadata:    map[string]any{"v": 1.0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Patch mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "old {{x}}", base.Content, "Patch must not mutate the receiver")

	cleared := base.Patch(Update{SetTags: true})
	assert.Equal(t, []string{}, cleared.Tags)
}

func TestPrompt_Summary(t *testing.T) {
	t.Parallel()
	s := (&Prompt{ID: "p", Description: "d"}).Summary()
	assert.Equal(t, Summary{ID: "p", Description: "d", Tags: []string{}}, s)
}
