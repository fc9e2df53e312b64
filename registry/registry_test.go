package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/skosovsky/promptreg"
	"github.com/skosovsky/promptreg/filestore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newRegistry(t *testing.T) (*Registry, *filestore.Store, *filestore.Store) {
	t.Helper()
	root := t.TempDir()
	project := filestore.New(filepath.Join(root, "project"))
	global := filestore.New(filepath.Join(root, "global"))
	return New(project, global), project, global
}

func prompt(id, content string, tags ...string) *promptreg.Prompt {
	return &promptreg.Prompt{ID: id, Content: content, Tags: tags}
}

func TestRegistry_Active_ProjectShadowsGlobal(t *testing.T) {
	t.Parallel()
	reg, project, global := newRegistry(t)
	ctx := context.Background()
	require.NoError(t, global.Put(ctx, prompt("p", "global")))
	require.NoError(t, project.Put(ctx, prompt("p", "project")))

	p, src, err := reg.Active(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "project", p.Content)
	assert.Equal(t, SourceProject, src)
}

func TestRegistry_Active_FallsBackToGlobal(t *testing.T) {
	t.Parallel()
	reg, _, global := newRegistry(t)
	ctx := context.Background()
	require.NoError(t, global.Put(ctx, prompt("p", "global")))

	p, src, err := reg.Active(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "global", p.Content)
	assert.Equal(t, SourceGlobal, src)
}

func TestRegistry_Active_NotFound(t *testing.T) {
	t.Parallel()
	reg, _, _ := newRegistry(t)
	_, _, err := reg.Active(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, promptreg.ErrPromptNotFound)
}

func TestRegistry_Active_InvalidProjectCopyNotShadowed(t *testing.T) {
	t.Parallel()
	reg, project, global := newRegistry(t)
	ctx := context.Background()
	require.NoError(t, global.Put(ctx, prompt("p", "global")))
	require.NoError(t, project.EnsureDir())
	require.NoError(t, os.WriteFile(filepath.Join(project.Dir(), "p.json"), []byte("{"), 0o600))

	_, _, err := reg.Active(ctx, "p")
	assert.ErrorIs(t, err, promptreg.ErrInvalidPrompt)
}

func TestRegistry_Active_NilGlobal(t *testing.T) {
	t.Parallel()
	reg := New(filestore.New(t.TempDir()), nil)
	_, _, err := reg.Active(context.Background(), "p")
	assert.ErrorIs(t, err, promptreg.ErrPromptNotFound)
	assert.Nil(t, reg.Global())
}

func TestRegistry_List_UnionSorted(t *testing.T) {
	t.Parallel()
	reg, project, global := newRegistry(t)
	ctx := context.Background()
	require.NoError(t, global.Put(ctx, prompt("c", "global-c")))
	require.NoError(t, global.Put(ctx, prompt("a", "global-a")))
	require.NoError(t, project.Put(ctx, prompt("a", "project-a")))
	require.NoError(t, project.Put(ctx, prompt("b", "project-b")))

	entries, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].Prompt.ID)
	assert.Equal(t, "project-a", entries[0].Prompt.Content)
	assert.Equal(t, SourceProject, entries[0].Source)
	assert.Equal(t, "b", entries[1].Prompt.ID)
	assert.Equal(t, "c", entries[2].Prompt.ID)
	assert.Equal(t, SourceGlobal, entries[2].Source)
}

func TestRegistry_List_Empty(t *testing.T) {
	t.Parallel()
	reg, _, _ := newRegistry(t)
	entries, err := reg.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegistry_Filter(t *testing.T) {
	t.Parallel()
	reg, project, global := newRegistry(t)
	ctx := context.Background()
	require.NoError(t, global.Put(ctx, prompt("review", "g", "code", "review")))
	require.NoError(t, project.Put(ctx, prompt("review", "p", "code")))
	require.NoError(t, project.Put(ctx, prompt("lint", "p", "code", "review", "go")))
	require.NoError(t, project.Put(ctx, prompt("chat", "p", "chat")))

	entries, err := reg.Filter(ctx, []string{"code", "review"})
	require.NoError(t, err)
	require.Len(t, entries, 1, "shadowed global tags must not match")
	assert.Equal(t, "lint", entries[0].Prompt.ID)

	entries, err = reg.Filter(ctx, []string{"nothing"})
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = reg.Filter(ctx, nil)
	assert.ErrorIs(t, err, ErrNoTags)
}

func TestRegistry_Add(t *testing.T) {
	t.Parallel()
	reg, project, global := newRegistry(t)
	ctx := context.Background()
	require.NoError(t, global.Put(ctx, prompt("shared", "global")))

	require.NoError(t, reg.Add(ctx, prompt("shared", "override")))
	p, err := project.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "override", p.Content)

	err = reg.Add(ctx, prompt("shared", "again"))
	require.Error(t, err)
	assert.ErrorIs(t, err, promptreg.ErrPromptExists)

	err = reg.Add(ctx, prompt("a/b", "x"))
	assert.ErrorIs(t, err, promptreg.ErrInvalidID)
}

func TestRegistry_Update_CreatesProjectOverride(t *testing.T) {
	t.Parallel()
	reg, project, global := newRegistry(t)
	ctx := context.Background()
	base := prompt("p", "global {{x}}", "t1")
	base.Description = "kept"
	require.NoError(t, global.Put(ctx, base))

	content := "updated {{x}}"
	updated, err := reg.Update(ctx, "p", promptreg.Update{Content: &content, Tags: []string{"t2"}})
	require.NoError(t, err)
	assert.Equal(t, "updated {{x}}", updated.Content)
	assert.Equal(t, "kept", updated.Description)
	assert.Equal(t, []string{"t2"}, updated.Tags)

	fromProject, err := project.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, updated, fromProject)
	fromGlobal, err := global.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "global {{x}}", fromGlobal.Content, "global default must stay untouched")
}

func TestRegistry_Update_NotFound(t *testing.T) {
	t.Parallel()
	reg, _, _ := newRegistry(t)
	_, err := reg.Update(context.Background(), "missing", promptreg.Update{})
	assert.ErrorIs(t, err, promptreg.ErrPromptNotFound)
}

func TestRegistry_Delete_SurfacesGlobal(t *testing.T) {
	t.Parallel()
	reg, project, global := newRegistry(t)
	ctx := context.Background()
	require.NoError(t, global.Put(ctx, prompt("p", "global")))
	require.NoError(t, project.Put(ctx, prompt("p", "project")))

	next, err := reg.Delete(ctx, "p")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "global", next.Content)

	_, err = reg.Delete(ctx, "p")
	assert.ErrorIs(t, err, promptreg.ErrPromptNotFound, "global defaults are not deletable through the registry")
}

func TestRegistry_Delete_Last(t *testing.T) {
	t.Parallel()
	reg, project, _ := newRegistry(t)
	ctx := context.Background()
	require.NoError(t, project.Put(ctx, prompt("p", "project")))
	next, err := reg.Delete(ctx, "p")
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestRegistry_Render(t *testing.T) {
	t.Parallel()
	reg, project, _ := newRegistry(t)
	ctx := context.Background()
	p := prompt("greet", "Hello, {{ name }}!")
	p.Variables = map[string]promptreg.Variable{"name": {}}
	require.NoError(t, project.Put(ctx, p))

	text, got, err := reg.Render(ctx, "greet", map[string]string{"name": "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ann!", text)
	assert.Equal(t, "greet", got.ID)

	_, _, err = reg.Render(ctx, "greet", nil)
	assert.ErrorIs(t, err, promptreg.ErrMissingVariable)
}
