// Package playlist provides the wrap-around cursor over the videos found in
// the input directory.
package playlist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Cursor cycles through a fixed list of video paths. The list never changes
// after construction; only the read position moves.
type Cursor struct {
	paths []string
	index int // index of the current path, -1 before the first Next
}

// New creates a cursor over paths in the given order.
func New(paths []string) *Cursor {
	p := make([]string, len(paths))
	copy(p, paths)
	return &Cursor{paths: p, index: -1}
}

// FromDir builds a cursor from the entries of dir whose names match pattern.
// Entries keep directory listing order unless sorted is set.
func FromDir(dir, pattern string, sorted bool) (*Cursor, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	f, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open movie dir: %w", err)
	}
	defer f.Close()

	// Readdirnames returns raw listing order; os.ReadDir and filepath.Glob
	// would sort.
	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, fmt.Errorf("list movie dir: %w", err)
	}

	paths := make([]string, 0, len(names))
	for _, name := range names {
		if ok, _ := filepath.Match(pattern, name); !ok {
			continue
		}
		full := filepath.Join(dir, name)
		if info, err := os.Stat(full); err != nil || info.IsDir() {
			continue
		}
		paths = append(paths, full)
	}

	if sorted {
		sort.Strings(paths)
	}

	return New(paths), nil
}

// Next advances the cursor and returns the new current path. It returns
// false when the playlist is empty; the cursor is unchanged in that case.
func (c *Cursor) Next() (string, bool) {
	if len(c.paths) == 0 {
		return "", false
	}
	c.index = (c.index + 1) % len(c.paths)
	return c.paths[c.index], true
}

// Current returns the current path, or false if Next has not produced one.
func (c *Cursor) Current() (string, bool) {
	if c.index < 0 || c.index >= len(c.paths) {
		return "", false
	}
	return c.paths[c.index], true
}

// Index returns the current index (-1 if none).
func (c *Cursor) Index() int {
	return c.index
}

// Len returns the number of videos.
func (c *Cursor) Len() int {
	return len(c.paths)
}

// IsEmpty reports whether there are no videos.
func (c *Cursor) IsEmpty() bool {
	return len(c.paths) == 0
}

// Paths returns a copy of all paths in cursor order.
func (c *Cursor) Paths() []string {
	p := make([]string, len(c.paths))
	copy(p, c.paths)
	return p
}
