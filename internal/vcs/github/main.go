package github

import (
	"context"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/storage/memory"

	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/vcs"
	"git.home.luguber.info/inful/cibuilder/internal/vcs/gitvcs"
)

// MainDriver serves the main role for github: the checkout cycle is plain
// git, the review handle reports over the check runs API when reporting is
// requested.
type MainDriver struct {
	*gitvcs.MainDriver
	review *Review
}

// NewMainDriver creates a github main driver. The review handle is built
// only when github check-run settings are present; without them the driver
// behaves like plain git and reports no review support.
func NewMainDriver(git *config.GitSettings, github *config.GithubSettings, projectRoot string) (*MainDriver, error) {
	d := &MainDriver{MainDriver: gitvcs.NewMainDriver(git, projectRoot)}
	if github != nil {
		review, err := NewReview(github, git)
		if err != nil {
			return nil, err
		}
		d.review = review
	}
	return d, nil
}

// CodeReview returns the check-run review handle when one is configured.
func (d *MainDriver) CodeReview() (vcs.CodeReview, error) {
	if d.review == nil {
		return nil, vcs.ErrReviewUnsupported
	}
	return d.review, nil
}

// remoteHead builds a lookup of the current remote head of the configured
// refspec, listing the remote without cloning it.
func remoteHead(settings *config.GitSettings) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		remote := gogit.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
			Name: "origin",
			URLs: []string{settings.Repo},
		})
		refs, err := remote.ListContext(ctx, &gogit.ListOptions{})
		if err != nil {
			return "", fmt.Errorf("failed to list remote %s: %w", settings.Repo, err)
		}
		want := gitvcs.ReferenceName(settings.Refspec)
		for _, ref := range refs {
			if ref.Name() == want {
				return ref.Hash().String(), nil
			}
		}
		return "", fmt.Errorf("refspec %s not found on remote %s", settings.Refspec, settings.Repo)
	}
}
