package gitvcs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cibuilder/internal/config"
)

func pollDriverFor(server *gitServer) *PollDriver {
	return NewPollDriver(&config.GitSettings{Repo: server.URL, Refspec: testBranch})
}

func TestDetectChangesEmptySinceReturnsHead(t *testing.T) {
	server := newGitServer(t)
	head := server.makeChange()

	changes, err := pollDriverFor(server).DetectChanges(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, head, changes[0].ID)
	assert.Equal(t, "add line 1", changes[0].Message)
}

func TestDetectChangesOldestFirst(t *testing.T) {
	server := newGitServer(t)
	base := server.lastCommit()
	first := server.makeChange()
	second := server.makeChange()

	changes, err := pollDriverFor(server).DetectChanges(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, first, changes[0].ID)
	assert.Equal(t, second, changes[1].ID)
}

func TestDetectChangesUpToDate(t *testing.T) {
	server := newGitServer(t)
	head := server.lastCommit()

	changes, err := pollDriverFor(server).DetectChanges(context.Background(), head)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDetectChangesBadRepo(t *testing.T) {
	driver := NewPollDriver(&config.GitSettings{Repo: t.TempDir(), Refspec: testBranch})
	_, err := driver.DetectChanges(context.Background(), "")
	assert.Error(t, err)
}
