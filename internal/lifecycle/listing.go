package lifecycle

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// fileListing produces a recursive long-format listing of root, one entry
// per line with mode, size, modification time and path relative to root.
// The walk order is deterministic (lexical), matching what auditors expect
// from the repository state artifact.
func fileListing(root string) (string, error) {
	var b strings.Builder
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "%s %10d %s %s\n",
			info.Mode().String(),
			info.Size(),
			info.ModTime().Format("2006-01-02 15:04"),
			filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to list %s: %w", root, err)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
