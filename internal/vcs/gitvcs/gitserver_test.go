package gitvcs

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

const testBranch = "testing"

// gitServer is a local bare repository with a commit history on the
// "testing" branch, plus a seed worktree used to grow that history.
type gitServer struct {
	t *testing.T

	// URL is the bare repository path drivers clone from and push to.
	URL string

	seedDir  string
	seed     *gogit.Repository
	worktree *gogit.Worktree
	count    int
}

func newGitServer(t *testing.T) *gitServer {
	t.Helper()

	seedDir := t.TempDir()
	bareDir := t.TempDir()

	seed, err := gogit.PlainInit(seedDir, false)
	require.NoError(t, err)
	worktree, err := seed.Worktree()
	require.NoError(t, err)

	s := &gitServer{t: t, URL: bareDir, seedDir: seedDir, seed: seed, worktree: worktree}

	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "readme.txt"), []byte(""), 0o600))
	_, err = worktree.Add("readme.txt")
	require.NoError(t, err)
	first, err := worktree.Commit("initial commit", &gogit.CommitOptions{Author: s.signature()})
	require.NoError(t, err)

	// Move the history onto the testing branch.
	branchRef := plumbing.NewHashReference(plumbing.NewBranchReferenceName(testBranch), first)
	require.NoError(t, seed.Storer.SetReference(branchRef))
	require.NoError(t, worktree.Checkout(&gogit.CheckoutOptions{Branch: branchRef.Name()}))

	_, err = gogit.PlainInit(bareDir, true)
	require.NoError(t, err)
	_, err = seed.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{bareDir}})
	require.NoError(t, err)
	s.push()

	return s
}

func (s *gitServer) signature() *object.Signature {
	return &object.Signature{Name: "Testing user", Email: "some@email.com", When: time.Now()}
}

func (s *gitServer) push() {
	s.t.Helper()
	refspec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", testBranch, testBranch))
	err := s.seed.Push(&gogit.PushOptions{RemoteName: "origin", RefSpecs: []gitconfig.RefSpec{refspec}})
	if err != nil && err != gogit.NoErrAlreadyUpToDate {
		require.NoError(s.t, err)
	}
}

// makeChange appends a line to the tracked file, commits and publishes it,
// returning the new commit hash.
func (s *gitServer) makeChange() string {
	s.t.Helper()
	s.count++

	path := filepath.Join(s.seedDir, "readme.txt")
	content, err := os.ReadFile(path)
	require.NoError(s.t, err)
	content = append(content, []byte("One more line\n")...)
	require.NoError(s.t, os.WriteFile(path, content, 0o600))

	_, err = s.worktree.Add("readme.txt")
	require.NoError(s.t, err)
	hash, err := s.worktree.Commit(fmt.Sprintf("add line %d", s.count), &gogit.CommitOptions{Author: s.signature()})
	require.NoError(s.t, err)

	s.push()
	return hash.String()
}

// lastCommit returns the published head of the testing branch.
func (s *gitServer) lastCommit() string {
	s.t.Helper()
	ref, err := s.seed.Reference(plumbing.NewBranchReferenceName(testBranch), true)
	require.NoError(s.t, err)
	return ref.Hash().String()
}

// remoteBranchHead reads the testing branch head directly from the bare
// repository, bypassing the seed clone.
func (s *gitServer) remoteBranchHead() string {
	s.t.Helper()
	bare, err := gogit.PlainOpen(s.URL)
	require.NoError(s.t, err)
	ref, err := bare.Reference(plumbing.NewBranchReferenceName(testBranch), true)
	require.NoError(s.t, err)
	return ref.Hash().String()
}
