// Package store provides the file snapshots trees are built from, and the
// on-disk root digest a client keeps between runs.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/makew0rld/merkvault/merkle"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidName = errors.New("invalid file name")

// ValidName reports whether name can be stored in a Dir: a single path
// element, with no separators or parent references.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return true
}

// pbReader updates the progress bar for each read
type pbReader struct {
	bar *progressbar.ProgressBar
	r   io.Reader
}

func (pbr *pbReader) Read(p []byte) (n int, err error) {
	n, err = pbr.r.Read(p)
	if n > 0 {
		if e := pbr.bar.Add(n); e != nil && err == nil {
			err = e
		}
	}
	return
}

// LoadDir reads every regular file under dirPath into memory, keyed by its
// slash-separated path relative to dirPath. Special files are skipped.
//
// If bar is not nil it is advanced by the number of bytes read; its max should
// be set to the total size beforehand, see DirSize.
func LoadDir(dirPath string, bar *progressbar.ProgressBar) (merkle.Files, error) {
	paths, _, err := walk(dirPath)
	if err != nil {
		return nil, err
	}

	files := make(merkle.Files, len(paths))
	var mu sync.Mutex

	var g errgroup.Group
	// 2*numCPU since this is more I/O-bound than CPU-bound
	g.SetLimit(runtime.NumCPU() * 2)
	for _, p := range paths {
		p := p
		g.Go(func() error {
			f, err := os.Open(filepath.Join(dirPath, filepath.FromSlash(p)))
			if err != nil {
				return err
			}
			defer f.Close()
			var r io.Reader = f
			if bar != nil {
				r = &pbReader{bar, f}
			}
			content, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("reading %s: %w", p, err)
			}
			mu.Lock()
			files[p] = content
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// DirSize returns the number of regular files under dirPath and their total
// size in bytes.
func DirSize(dirPath string) (int, int64, error) {
	paths, size, err := walk(dirPath)
	return len(paths), size, err
}

func walk(dirPath string) ([]string, int64, error) {
	var paths []string
	var total int64
	err := fs.WalkDir(os.DirFS(dirPath), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Type() != 0 {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		paths = append(paths, path.Clean(p))
		return nil
	})
	return paths, total, err
}

// Dir is a directory of uploaded files. Writes and snapshots are serialized
// so a snapshot never sees a half-written file.
type Dir struct {
	path string
	mu   sync.RWMutex
}

// OpenDir creates the directory if needed.
func OpenDir(dirPath string) (*Dir, error) {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return nil, err
	}
	return &Dir{path: dirPath}, nil
}

func (d *Dir) Path() string { return d.path }

// Save stores content under name, replacing any existing file.
func (d *Dir) Save(name string, content []byte) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return os.WriteFile(filepath.Join(d.path, name), content, 0644)
}

// Snapshot returns the current contents of the directory.
func (d *Dir) Snapshot() (merkle.Files, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return LoadDir(d.path, nil)
}

// WriteRoot stores a root digest as raw bytes.
func WriteRoot(path string, root merkle.Digest) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, root, 0644)
}

// ReadRoot reads a root digest written by WriteRoot.
func ReadRoot(path string) (merkle.Digest, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bz) != merkle.Size {
		return nil, fmt.Errorf("root file %s holds %d bytes, expected %d", path, len(bz), merkle.Size)
	}
	return merkle.Digest(bz), nil
}
