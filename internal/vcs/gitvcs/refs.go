package gitvcs

import (
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/cibuilder/internal/vcs"
)

// ReferenceName maps a configured refspec to a full reference name. Short
// names are treated as branches; anything starting with refs/ (tags, gerrit
// change refs) is used as-is.
func ReferenceName(refspec string) plumbing.ReferenceName {
	if strings.HasPrefix(refspec, "refs/") {
		return plumbing.ReferenceName(refspec)
	}
	return plumbing.NewBranchReferenceName(refspec)
}

// statusDiff converts a go-git worktree status into a FileDiff, sorted by
// path for deterministic output.
func statusDiff(status gogit.Status) vcs.FileDiff {
	diff := vcs.FileDiff{}
	paths := make([]string, 0, len(status))
	for path := range status {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fs := status[path]
		code := fs.Worktree
		if code == gogit.Unmodified {
			code = fs.Staging
		}
		switch code {
		case gogit.Unmodified:
			continue
		case gogit.Untracked, gogit.Added:
			diff = append(diff, vcs.FileChange{Action: vcs.ActionAdd, Path: path})
		case gogit.Deleted:
			diff = append(diff, vcs.FileChange{Action: vcs.ActionDelete, Path: path})
		case gogit.Renamed:
			diff = append(diff, vcs.FileChange{Action: vcs.ActionModify, Path: path, OldPath: fs.Extra})
		default:
			diff = append(diff, vcs.FileChange{Action: vcs.ActionModify, Path: path})
		}
	}
	return diff
}
