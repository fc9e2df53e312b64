package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/skosovsky/promptreg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func samplePrompt(id string) *promptreg.Prompt {
	return &promptreg.Prompt{
		ID:          id,
		Description: "Greets the user",
		Content:     "Hello, {{name}}!",
		Tags:        []string{"greeting"},
		Variables:   map[string]promptreg.Variable{"name": {Description: "User name"}},
		Metadata:    map[string]any{"version": "1"},
	}
}

func TestStore_PutGet_RoundTrip(t *testing.T) {
	t.Parallel()
	s := New(filepath.Join(t.TempDir(), "nested", "prompts"))
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, samplePrompt("greet")))

	got, err := s.Get(ctx, "greet")
	require.NoError(t, err)
	assert.Equal(t, samplePrompt("greet"), got)
}

func TestStore_Put_IndentedLayout(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Put(context.Background(), &promptreg.Prompt{ID: "bare", Content: "x"}))
	data, err := os.ReadFile(filepath.Join(dir, "bare.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"id\": \"bare\",\n  \"content\": \"x\",\n  \"tags\": [],\n  \"variables\": {},\n  \"metadata\": {}\n}", string(data))
}

func TestStore_Put_InvalidID(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())
	err := s.Put(context.Background(), &promptreg.Prompt{ID: "../escape", Content: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, promptreg.ErrInvalidID)
}

func TestStore_Get_NotFound(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())
	_, err := s.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, promptreg.ErrPromptNotFound)
}

func TestStore_Get_MissingDirectory(t *testing.T) {
	t.Parallel()
	s := New(filepath.Join(t.TempDir(), "absent"))
	_, err := s.Get(context.Background(), "p")
	assert.ErrorIs(t, err, promptreg.ErrPromptNotFound)
}

func TestStore_Get_Malformed(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"id": "bad", "content": `), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.json"), []byte(`{"id": "wrong", "content": 42}`), 0o600))
	s := New(dir)
	_, err := s.Get(context.Background(), "bad")
	assert.ErrorIs(t, err, promptreg.ErrInvalidPrompt)
	_, err = s.Get(context.Background(), "wrong")
	assert.ErrorIs(t, err, promptreg.ErrInvalidPrompt)
}

func TestStore_Get_FileNameWinsOverDocumentID(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "renamed.json"), []byte(`{"id": "stale", "content": "x"}`), 0o600))
	p, err := New(dir).Get(context.Background(), "renamed")
	require.NoError(t, err)
	assert.Equal(t, "renamed", p.ID)
	assert.Equal(t, []string{}, p.Tags)
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, samplePrompt("p")))
	deleted, err := s.Delete(ctx, "p")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = s.Delete(ctx, "p")
	require.NoError(t, err)
	assert.False(t, deleted)
	ok, err := s.Exists(ctx, "p")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_IDsAndList(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, samplePrompt("b")))
	require.NoError(t, s.Put(ctx, samplePrompt("a")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("not json"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# notes"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	ids, err := s.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "broken"}, ids)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestStore_IDs_MissingDirectory(t *testing.T) {
	t.Parallel()
	ids, err := New(filepath.Join(t.TempDir(), "absent")).IDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(t.TempDir())
	_, err := s.Get(ctx, "p")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Put(ctx, samplePrompt("p")), context.Canceled)
}

func TestStore_ConcurrentPutGet(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, samplePrompt("p")))
	done := make(chan error, 40)
	for range 20 {
		go func() { done <- s.Put(ctx, samplePrompt("p")) }()
		go func() {
			_, err := s.Get(ctx, "p")
			done <- err
		}()
	}
	for range 40 {
		require.NoError(t, <-done)
	}
}
