package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir serves documents from a local directory. Lookups cannot escape the
// directory, including through symlinks.
type Dir struct {
	root     string
	maxBytes int64
}

func NewDir(root string, maxBytes int64) *Dir {
	return &Dir{root: root, maxBytes: maxBytes}
}

func (d *Dir) Fetch(ctx context.Context, page string) ([]byte, error) {
	name, err := CleanPage(page)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.OpenInRoot(d.root, filepath.FromSlash(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", page, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", page, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", page, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", page, ErrNotFound)
	}

	data, err := readLimited(f, d.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", page, err)
	}
	return data, nil
}
