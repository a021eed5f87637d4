package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrip(t *testing.T) {
	in := "# Todo\n- [x] done\n- [ ] open\n  - [x] nested done\ntext\n"

	out, removed := Strip([]byte(in))
	assert.Equal(t, 2, removed)
	assert.Equal(t, "# Todo\n- [ ] open\ntext\n", string(out))
}

func TestStrip_KeepsLineEndings(t *testing.T) {
	in := "# Todo\r\n- [x] done\r\n- [ ] open\r\nlast line"

	out, removed := Strip([]byte(in))
	assert.Equal(t, 1, removed)
	assert.Equal(t, "# Todo\r\n- [ ] open\r\nlast line", string(out))
}

func TestStrip_CompletedLastLineWithoutNewline(t *testing.T) {
	out, removed := Strip([]byte("- [ ] open\n- [x] done"))
	assert.Equal(t, 1, removed)
	assert.Equal(t, "- [ ] open\n", string(out))
}

func TestStrip_NothingCompleted(t *testing.T) {
	out, removed := Strip([]byte("- [ ] a\n- [ ] b\n"))
	assert.Equal(t, 0, removed)
	assert.Equal(t, "- [ ] a\n- [ ] b\n", string(out))
}

func TestIsCompleted(t *testing.T) {
	assert.True(t, IsCompleted("- [x] ship it"))
	assert.False(t, IsCompleted("- [X] uppercase is not done"))
	assert.False(t, IsCompleted("- [ ] open"))
	assert.False(t, IsCompleted(""))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestClearCompleted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "- [x] one\n- [ ] two\n")
	writeFile(t, filepath.Join(root, "sub", "b.md"), "- [x] one\n- [x] two\n")
	writeFile(t, filepath.Join(root, "sub", "clean.md"), "- [ ] open\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "- [x] not markdown\n")
	writeFile(t, filepath.Join(root, ".git", "c.md"), "- [x] hidden\n")

	results, err := ClearCompleted(root)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 3, Total(results))

	data, err := os.ReadFile(filepath.Join(root, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "- [ ] two\n", string(data))

	data, err = os.ReadFile(filepath.Join(root, "sub", "b.md"))
	require.NoError(t, err)
	assert.Empty(t, string(data))

	data, err = os.ReadFile(filepath.Join(root, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "- [x] not markdown\n", string(data))

	data, err = os.ReadFile(filepath.Join(root, ".git", "c.md"))
	require.NoError(t, err)
	assert.Equal(t, "- [x] hidden\n", string(data))
}

func TestClearCompleted_MissingRoot(t *testing.T) {
	_, err := ClearCompleted(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestClearFile_UnchangedNotRewritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.md")
	writeFile(t, path, "- [ ] open")

	removed, err := ClearFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "- [ ] open", string(data))
}
