// Package localvcs implements the no-VCS backend: sources are taken from an
// existing local directory, preparation and revert are no-ops and diffs are
// always empty.
package localvcs

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/logfields"
	"git.home.luguber.info/inful/cibuilder/internal/vcs"
)

// StatusText is the fixed repository status reported for local directory
// sources.
const StatusText = "Local directory is used as a source, no VCS is used"

// MainDriver serves the main role for a plain local directory.
type MainDriver struct {
	sourceDir string
}

// NewMainDriver creates a local directory main driver.
func NewMainDriver(settings *config.LocalSettings) *MainDriver {
	return &MainDriver{sourceDir: settings.SourceDir}
}

// PrepareRepository only verifies the source directory exists; the sources
// are used in place.
func (d *MainDriver) PrepareRepository(ctx context.Context) error {
	info, err := os.Stat(d.sourceDir)
	if err != nil {
		return fmt.Errorf("source directory is not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source path %s is not a directory", d.sourceDir)
	}
	slog.Info("Using local sources in place", logfields.Path(d.sourceDir))
	return nil
}

func (d *MainDriver) WorkingDir() string { return d.sourceDir }

func (d *MainDriver) RepoStatus() (string, error) {
	return StatusText, nil
}

func (d *MainDriver) CalculateFileDiff() (vcs.FileDiff, error) {
	return vcs.FileDiff{}, nil
}

func (d *MainDriver) CopyCLFilesAndRevert() (vcs.FileDiff, error) {
	return vcs.FileDiff{}, nil
}

func (d *MainDriver) Finalize() error { return nil }

func (d *MainDriver) CodeReview() (vcs.CodeReview, error) {
	return nil, vcs.ErrReviewUnsupported
}

// PollDriver is the no-VCS poller: there is never anything new to report.
type PollDriver struct{}

func NewPollDriver() *PollDriver { return &PollDriver{} }

func (d *PollDriver) DetectChanges(ctx context.Context, since string) ([]vcs.Change, error) {
	return nil, nil
}

func (d *PollDriver) Finalize() error { return nil }

// SubmitDriver is the no-VCS submitter; submitting without a VCS is an error.
type SubmitDriver struct{}

func NewSubmitDriver() *SubmitDriver { return &SubmitDriver{} }

func (d *SubmitDriver) Submit(ctx context.Context, description string) (string, error) {
	return "", fmt.Errorf("local directory sources cannot be submitted anywhere")
}

func (d *SubmitDriver) Finalize() error { return nil }
