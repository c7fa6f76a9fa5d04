package gitvcs

import (
	"context"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/vcs"
)

// maxPollDepth bounds the history walk when the previously seen revision is
// no longer reachable (e.g. after a force push).
const maxPollDepth = 100

// PollDriver detects new commits on the configured refspec without touching
// any working directory: the repository is fetched into memory only.
type PollDriver struct {
	settings *config.GitSettings
}

// NewPollDriver creates a git poll driver. The gerrit and github backends
// poll through this same mechanism.
func NewPollDriver(settings *config.GitSettings) *PollDriver {
	return &PollDriver{settings: settings}
}

// DetectChanges returns commits newer than since (exclusive), oldest first.
// An empty since yields only the current head.
func (d *PollDriver) DetectChanges(ctx context.Context, since string) ([]vcs.Change, error) {
	repo, err := gogit.CloneContext(ctx, memory.NewStorage(), nil, &gogit.CloneOptions{
		URL:           d.settings.Repo,
		ReferenceName: ReferenceName(d.settings.Refspec),
		SingleBranch:  true,
		NoCheckout:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repository %s: %w", d.settings.Repo, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve head of %s: %w", d.settings.Refspec, err)
	}
	headCommit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to read head commit: %w", err)
	}

	if since == "" {
		return []vcs.Change{changeOf(headCommit)}, nil
	}
	if head.Hash().String() == since {
		return nil, nil
	}

	iter, err := repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history: %w", err)
	}
	defer iter.Close()

	// Newest first while walking; reversed before returning.
	var newest []vcs.Change
	for range maxPollDepth {
		commit, err := iter.Next()
		if err != nil {
			break
		}
		if commit.Hash.String() == since {
			break
		}
		newest = append(newest, changeOf(commit))
	}

	oldest := make([]vcs.Change, 0, len(newest))
	for i := len(newest) - 1; i >= 0; i-- {
		oldest = append(oldest, newest[i])
	}
	return oldest, nil
}

func (d *PollDriver) Finalize() error { return nil }

func changeOf(commit *object.Commit) vcs.Change {
	message := commit.Message
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		message = message[:idx]
	}
	return vcs.Change{
		ID:      commit.Hash.String(),
		Message: message,
		When:    commit.Author.When,
	}
}
