package handler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrNoDocuments is returned when path expansion finds no PDF.
	ErrNoDocuments = errors.New("no PDF found in the given paths: send .pdf files, a directory holding PDFs, or a glob pattern such as **/*.pdf")
	// ErrInvalidPath is returned for a malformed glob pattern.
	ErrInvalidPath = errors.New("invalid path")
	// ErrNoValidUploads is returned when no uploaded part looks like a PDF.
	ErrNoValidUploads = errors.New("no valid PDF was uploaded in 'files'")
	// ErrDirectoryNotFound is returned when the configured documents
	// directory does not exist.
	ErrDirectoryNotFound = errors.New("documents directory not found")
)

// ExpandPDFPaths turns files, directories and glob patterns into a list of
// absolute PDF paths, de-duplicated in first-seen order. Directories expand
// to **/*.pdf when recursive, *.pdf otherwise. Plain paths that do not exist
// or are not PDFs are skipped.
func ExpandPDFPaths(inputs []string, recursive bool) ([]string, error) {
	var found []string
	for _, raw := range inputs {
		p := strings.TrimSpace(strings.ReplaceAll(raw, `\`, "/"))
		if p == "" {
			continue
		}

		if strings.ContainsAny(p, "*?[") {
			matches, err := glob(p)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, raw, err)
			}
			found = append(found, matches...)
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.IsDir() {
			pattern := "*.[pP][dD][fF]"
			if recursive {
				pattern = "**/" + pattern
			}
			matches, err := glob(filepath.ToSlash(filepath.Join(p, pattern)))
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, raw, err)
			}
			found = append(found, matches...)
			continue
		}
		if isPDF(p) {
			found = append(found, p)
		}
	}

	seen := make(map[string]struct{}, len(found))
	out := make([]string, 0, len(found))
	for _, p := range found {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out, nil
}

// DirectoryPDFs lists the PDFs directly under dir.
func DirectoryPDFs(dir string) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: none configured", ErrDirectoryNotFound)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}
	return ExpandPDFPaths([]string{dir}, false)
}

// glob returns the regular PDF files matching pattern, sorted.
func glob(pattern string) ([]string, error) {
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	out := matches[:0]
	for _, m := range matches {
		if isPDF(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
