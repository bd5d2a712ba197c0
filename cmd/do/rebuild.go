package main

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// rebuildRoots are the trees bin/do is built from. internal/db/migrations is
// embedded, so .sql files count as sources too.
var rebuildRoots = []string{"cmd/do", "internal", "go.mod", "go.sum"}

func isBuildInput(path string) bool {
	switch {
	case strings.HasSuffix(path, "_test.go"):
		return false
	case strings.HasSuffix(path, ".go"), strings.HasSuffix(path, ".sql"):
		return true
	}
	base := filepath.Base(path)
	return base == "go.mod" || base == "go.sum"
}

// changedSince returns the first build input under roots modified after t.
// Missing roots are skipped.
func changedSince(t time.Time, roots ...string) (string, bool) {
	var changed string

	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !isBuildInput(path) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			if info.ModTime().After(t) {
				changed = path
				return filepath.SkipAll
			}
			return nil
		})
		if changed != "" {
			return changed, true
		}
	}

	return "", false
}
