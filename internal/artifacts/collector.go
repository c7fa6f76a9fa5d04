// Package artifacts collects named build artifacts (text reports, step logs,
// files copied out of the working directory) into a per-build directory.
package artifacts

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/cibuilder/internal/logfields"
)

// Collector persists named artifacts for one build.
type Collector struct {
	dir     string
	buildID string
}

// NewCollector creates the artifact directory if needed and stamps the
// collector with a fresh build id.
func NewCollector(dir string) (*Collector, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact directory is not set")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &Collector{dir: dir, buildID: uuid.NewString()}, nil
}

// Dir returns the artifact directory.
func (c *Collector) Dir() string { return c.dir }

// BuildID returns the id stamped on this build's artifacts.
func (c *Collector) BuildID() string { return c.buildID }

// TextFile is a scoped writable text artifact. Close is guaranteed to flush
// and is safe to call more than once.
type TextFile struct {
	file   *os.File
	name   string
	closed bool
}

// CreateTextFile opens a named text artifact for writing, truncating any
// previous content.
func (c *Collector) CreateTextFile(name string) (*TextFile, error) {
	path := filepath.Join(c.dir, name)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact %s: %w", name, err)
	}
	slog.Debug("Artifact file opened", logfields.Artifact(name), logfields.Path(path))
	return &TextFile{file: file, name: name}, nil
}

// WriteString appends text to the artifact.
func (t *TextFile) WriteString(s string) error {
	if t.closed {
		return fmt.Errorf("artifact %s is already closed", t.name)
	}
	_, err := t.file.WriteString(s)
	return err
}

// Close flushes and closes the artifact. Subsequent calls are no-ops.
func (t *TextFile) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.file.Sync(); err != nil {
		_ = t.file.Close()
		return err
	}
	return t.file.Close()
}

// SaveText writes a complete named text artifact in one call.
func (c *Collector) SaveText(name, content string) error {
	f, err := c.CreateTextFile(name)
	if err != nil {
		return err
	}
	if err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// CollectFile copies an existing file into the artifact directory under its
// base name.
func (c *Collector) CollectFile(srcPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open artifact source %s: %w", srcPath, err)
	}
	defer src.Close()

	dstPath := filepath.Join(c.dir, filepath.Base(srcPath))
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create artifact %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy artifact %s: %w", srcPath, err)
	}
	slog.Debug("Artifact collected", logfields.Artifact(filepath.Base(srcPath)))
	return nil
}
