package gitvcs

import (
	"context"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/cibuilder/internal/config"
)

// SubmitDriver records local modifications in the working directory as one
// commit and pushes it to the configured refspec.
type SubmitDriver struct {
	settings    *config.GitSettings
	projectRoot string
	// remoteRef overrides the remote side of the push refspec. Empty means
	// push back to the checkout branch.
	remoteRef string
}

// NewSubmitDriver creates a git submit driver operating on projectRoot.
func NewSubmitDriver(settings *config.GitSettings, projectRoot string) *SubmitDriver {
	return &SubmitDriver{settings: settings, projectRoot: projectRoot}
}

// NewSubmitDriverTo creates a git submit driver pushing the new commit to
// remoteRef instead of the checkout branch. Gerrit uses this to target its
// refs/for/ magic branch.
func NewSubmitDriverTo(settings *config.GitSettings, projectRoot, remoteRef string) *SubmitDriver {
	return &SubmitDriver{settings: settings, projectRoot: projectRoot, remoteRef: remoteRef}
}

// Submit commits every local modification and pushes to the refspec branch,
// returning the new commit hash.
func (d *SubmitDriver) Submit(ctx context.Context, description string) (string, error) {
	repo, err := gogit.PlainOpen(d.projectRoot)
	if err != nil {
		return "", fmt.Errorf("failed to open repository at %s: %w", d.projectRoot, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	if err := worktree.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("failed to stage local changes: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("failed to compute worktree status: %w", err)
	}
	if status.IsClean() {
		return "", fmt.Errorf("no local changes to submit")
	}

	commit, err := worktree.Commit(description, &gogit.CommitOptions{Author: d.signature()})
	if err != nil {
		return "", fmt.Errorf("failed to commit local changes: %w", err)
	}

	local := ReferenceName(d.settings.Refspec)
	remote := local
	if d.remoteRef != "" {
		remote = ReferenceName(d.remoteRef)
	}
	pushRefspec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", local, remote))
	if err := repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{pushRefspec},
	}); err != nil {
		return "", fmt.Errorf("failed to push %s: %w", d.settings.Refspec, err)
	}
	return commit.String(), nil
}

// signature builds the submit identity. Git does not require a separate
// submit identity, so missing settings fall back to a generic one.
func (d *SubmitDriver) signature() *object.Signature {
	name := d.settings.User
	if name == "" {
		name = "cibuilder"
	}
	email := d.settings.Email
	if email == "" {
		email = "cibuilder@localhost"
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}
}

func (d *SubmitDriver) Finalize() error { return nil }
