// Package gitvcs implements the git family of VCS drivers on top of go-git.
// The gerrit and github backends build on this package's main driver and add
// their review integrations.
package gitvcs

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/logfields"
	"git.home.luguber.info/inful/cibuilder/internal/vcs"
)

// MainDriver serves the main role for git repositories: clone the configured
// refspec into the working directory, report status, diff and revert.
type MainDriver struct {
	settings    *config.GitSettings
	projectRoot string

	repo *gogit.Repository
	// reference is the known-good revision the working tree is compared
	// against and reverted to.
	reference plumbing.Hash
}

// NewMainDriver creates a git main driver materializing sources into
// projectRoot.
func NewMainDriver(settings *config.GitSettings, projectRoot string) *MainDriver {
	return &MainDriver{settings: settings, projectRoot: projectRoot}
}

func (d *MainDriver) WorkingDir() string { return d.projectRoot }

// PrepareRepository clones the configured refspec into the working directory
// and pins the checkout to the configured commit when one is set.
func (d *MainDriver) PrepareRepository(ctx context.Context) error {
	// Remove leftovers of a previous build owning the same directory.
	if err := os.RemoveAll(d.projectRoot); err != nil {
		return fmt.Errorf("failed to remove existing working directory: %w", err)
	}

	slog.Debug("Cloning repository",
		logfields.URL(d.settings.Repo),
		logfields.Refspec(d.settings.Refspec),
		logfields.Path(d.projectRoot))

	repo, err := gogit.PlainCloneContext(ctx, d.projectRoot, false, &gogit.CloneOptions{
		URL:           d.settings.Repo,
		ReferenceName: ReferenceName(d.settings.Refspec),
		SingleBranch:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository %s: %w", d.settings.Repo, err)
	}
	d.repo = repo

	if d.settings.CheckoutID != "" {
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree: %w", err)
		}
		hash := plumbing.NewHash(d.settings.CheckoutID)
		if err := worktree.Checkout(&gogit.CheckoutOptions{Hash: hash}); err != nil {
			return fmt.Errorf("failed to check out %s: %w", d.settings.CheckoutID, err)
		}
	}

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	d.reference = head.Hash()

	slog.Info("Repository prepared",
		logfields.URL(d.settings.Repo),
		logfields.Revision(d.reference.String()))
	return nil
}

// RepoStatus summarizes the prepared checkout.
func (d *MainDriver) RepoStatus() (string, error) {
	if d.repo == nil {
		return "", fmt.Errorf("repository is not prepared")
	}
	return fmt.Sprintf("Git repository: %s\nRefspec: %s\nCurrent revision: %s",
		d.settings.Repo, d.settings.Refspec, d.reference.String()), nil
}

// CalculateFileDiff diffs the working tree against the reference revision.
func (d *MainDriver) CalculateFileDiff() (vcs.FileDiff, error) {
	if d.repo == nil {
		return nil, fmt.Errorf("repository is not prepared")
	}
	worktree, err := d.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to compute worktree status: %w", err)
	}
	return statusDiff(status), nil
}

// CopyCLFilesAndRevert reverts all local modifications back to the reference
// revision and returns what was reverted. Git has no pending-changelist
// semantics, so this is a hard reset plus clean.
func (d *MainDriver) CopyCLFilesAndRevert() (vcs.FileDiff, error) {
	diff, err := d.CalculateFileDiff()
	if err != nil {
		return nil, err
	}
	worktree, err := d.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := worktree.Clean(&gogit.CleanOptions{Dir: true}); err != nil {
		return nil, fmt.Errorf("failed to clean untracked files: %w", err)
	}
	if err := worktree.Reset(&gogit.ResetOptions{
		Commit: d.reference,
		Mode:   gogit.HardReset,
	}); err != nil {
		return nil, fmt.Errorf("failed to reset working tree: %w", err)
	}
	slog.Info("Working tree reverted",
		logfields.Revision(d.reference.String()),
		logfields.Changes(len(diff)))
	return diff, nil
}

// Finalize drops the repository handle. Idempotent.
func (d *MainDriver) Finalize() error {
	d.repo = nil
	return nil
}

// CodeReview is unsupported for plain git; use the gerrit or github backend
// for review integration.
func (d *MainDriver) CodeReview() (vcs.CodeReview, error) {
	return nil, vcs.ErrReviewUnsupported
}
