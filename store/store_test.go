package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/makew0rld/merkvault/merkle"
	"github.com/schollz/progressbar/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func TestValidName(t *testing.T) {
	for _, name := range []string{"file1.txt", "a", ".hidden", "with space"} {
		require.True(t, ValidName(name), name)
	}
	for _, name := range []string{"", ".", "..", "a/b", "../etc/passwd", `a\b`, "nul\x00"} {
		require.False(t, ValidName(name), name)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"b.txt":        "bee",
		"a.txt":        "ay",
		"sub/c.txt":    "sea",
		"sub/deep/d":   "",
		"e.x":          "e",
	})

	files, err := LoadDir(dir, nil)
	require.NoError(t, err)
	require.Equal(t, merkle.Files{
		"a.txt":      []byte("ay"),
		"b.txt":      []byte("bee"),
		"e.x":        []byte("e"),
		"sub/c.txt":  []byte("sea"),
		"sub/deep/d": []byte{},
	}, files)
	require.Equal(t, []string{"a.txt", "b.txt", "e.x", "sub/c.txt", "sub/deep/d"}, files.Names())

	n, size, err := DirSize(dir)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, int64(len("bee")+len("ay")+len("sea")+len("e")), size)
}

func TestLoadDirProgress(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a": "12345", "b": "67890"})
	_, size, err := DirSize(dir)
	require.NoError(t, err)

	bar := progressbar.NewOptions64(size, progressbar.OptionSetWriter(&discard{}))
	files, err := LoadDir(dir, bar)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, float64(size), bar.State().CurrentBytes)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"), nil)
	require.Error(t, err)
}

func TestDirSaveSnapshot(t *testing.T) {
	d, err := OpenDir(filepath.Join(t.TempDir(), "server_files"))
	require.NoError(t, err)

	files, err := d.Snapshot()
	require.NoError(t, err)
	require.Empty(t, files)

	require.NoError(t, d.Save("hello1.txt", []byte("Hello World")))
	require.NoError(t, d.Save("hello2.txt", []byte("Hello World")))
	require.NoError(t, d.Save("hello2.txt", []byte("Hello again")))
	require.ErrorIs(t, d.Save("../escape.txt", []byte("x")), ErrInvalidName)

	files, err = d.Snapshot()
	require.NoError(t, err)
	require.Equal(t, merkle.Files{
		"hello1.txt": []byte("Hello World"),
		"hello2.txt": []byte("Hello again"),
	}, files)
}

func TestDirConcurrentSnapshots(t *testing.T) {
	d, err := OpenDir(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, d.Save("seed", []byte("seed")))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, d.Save(fmt.Sprintf("f%d", i), []byte(fmt.Sprintf("contents %d", i))))
		}(i)
		go func() {
			defer wg.Done()
			files, err := d.Snapshot()
			assert.NoError(t, err)
			for name, content := range files {
				if name == "seed" {
					continue
				}
				// Never a partial write
				assert.Equal(t, "contents "+name[1:], string(content))
			}
		}()
	}
	wg.Wait()
}

func TestRootFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client", "merkle.bin")
	root := merkle.SHA256.Sum([]byte("root"))
	require.NoError(t, WriteRoot(path, root))

	got, err := ReadRoot(path)
	require.NoError(t, err)
	require.Equal(t, root, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte(root), raw)

	require.NoError(t, os.WriteFile(path, []byte("short"), 0644))
	_, err = ReadRoot(path)
	require.Error(t, err)
	_, err = ReadRoot(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
