// Package source retrieves raw document text by page identifier.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidPage = errors.New("invalid page identifier")
	ErrTooLarge    = errors.New("document too large")
)

// Source fetches the raw bytes of the document at <base>/<page>.
type Source interface {
	Fetch(ctx context.Context, page string) ([]byte, error)
}

// CleanPage normalizes a page identifier into a slash-separated relative
// path. Identifiers that are empty, contain ".." segments, backslashes or
// NUL bytes are rejected.
func CleanPage(page string) (string, error) {
	if page == "" || strings.ContainsAny(page, "\\\x00") {
		return "", fmt.Errorf("%q: %w", page, ErrInvalidPage)
	}
	for _, seg := range strings.Split(page, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%q: %w", page, ErrInvalidPage)
		}
	}
	clean := strings.TrimPrefix(path.Clean("/"+page), "/")
	if clean == "" {
		return "", fmt.Errorf("%q: %w", page, ErrInvalidPage)
	}
	return clean, nil
}

// readLimited reads all of r, failing once more than max bytes arrive.
// max <= 0 disables the limit.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, max)
	}
	return data, nil
}
