// Package finder locates the image files a scramble run should process.
package finder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// DefaultPattern matches every file name.
const DefaultPattern = "*"

// Options controls a search.
type Options struct {
	// Dir is the directory to search, "." when empty.
	Dir string
	// Pattern is a filepath.Match glob tested against file base names.
	Pattern string
	// Recursive descends into subdirectories of Dir.
	Recursive bool
	// SkipSymlinks ignores symbolic links instead of following them to files.
	SkipSymlinks bool
}

// Find returns the regular files under opts.Dir whose names match
// opts.Pattern, in lexical order. Entries that cannot be read are logged
// and skipped; only a bad pattern or an unreadable Dir fail the search.
func Find(opts Options, logger *log.Logger) ([]string, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if _, err := filepath.Match(opts.Pattern, ""); err != nil {
		return nil, fmt.Errorf("finder: pattern %q: %w", opts.Pattern, err)
	}
	if logger == nil {
		logger = log.Default()
	}

	var matched []string
	err := filepath.WalkDir(opts.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == opts.Dir {
				return err
			}
			logger.Warn("skipping unreadable entry", "path", path, "err", err)
			return nil
		}
		if d.IsDir() {
			if path != opts.Dir && !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if opts.SkipSymlinks {
				return nil
			}
			fi, err := os.Stat(path)
			if err != nil {
				logger.Warn("skipping broken symlink", "path", path, "err", err)
				return nil
			}
			if !fi.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		ok, _ := filepath.Match(opts.Pattern, d.Name())
		if ok {
			matched = append(matched, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("finder: directory %s does not exist", opts.Dir)
		}
		return nil, fmt.Errorf("finder: %w", err)
	}
	return matched, nil
}
