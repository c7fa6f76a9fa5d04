package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cibuilder/internal/errors"
)

func TestValidateUnsetTypeEnumeratesAllTypes(t *testing.T) {
	c := &VcsConfig{}
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))

	// The remediation text must enumerate exactly the five supported names.
	msg := err.Error()
	for _, name := range []string{"none", "p4", "git", "gerrit", "github"} {
		assert.Contains(t, msg, name)
	}
	assert.Contains(t, msg, strings.Join(VcsTypeNames(), ", "))
}

func TestValidateUnknownType(t *testing.T) {
	c := &VcsConfig{Type: "svn"}
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
	assert.Contains(t, err.Error(), `"svn"`)
	assert.Contains(t, err.Error(), "none, p4, git, gerrit, github")
}

func TestValidateKnownTypes(t *testing.T) {
	for _, name := range VcsTypeNames() {
		c := &VcsConfig{Type: VcsType(name)}
		assert.NoError(t, c.Validate(), name)
	}
}

func TestRequireGit(t *testing.T) {
	c := &VcsConfig{Type: VcsGit}
	_, err := c.RequireGit()
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
	assert.Contains(t, err.Error(), "vcs.git.repo")

	c.Git = &GitSettings{Repo: "https://example.com/x.git"}
	_, err = c.RequireGit()
	assert.Error(t, err, "refspec still missing")

	c.Git.Refspec = "main"
	settings, err := c.RequireGit()
	require.NoError(t, err)
	assert.Equal(t, "main", settings.Refspec)
}

func TestRequirePerforce(t *testing.T) {
	c := &VcsConfig{Type: VcsP4}
	_, err := c.RequirePerforce(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vcs.perforce.port")

	c.Perforce = &PerforceSettings{Port: "perforce:1666", User: "ci", Password: "secret"}
	_, err = c.RequirePerforce(false)
	assert.NoError(t, err)

	// Main-role builds additionally need a client workspace.
	_, err = c.RequirePerforce(true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vcs.perforce.client")

	c.Perforce.Client = "ci_client"
	_, err = c.RequirePerforce(true)
	assert.NoError(t, err)
}

func TestRequireLocal(t *testing.T) {
	c := &VcsConfig{Type: VcsNone}
	_, err := c.RequireLocal()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vcs.local.source_dir")

	c.Local = &LocalSettings{SourceDir: "/src"}
	settings, err := c.RequireLocal()
	require.NoError(t, err)
	assert.Equal(t, "/src", settings.SourceDir)
}

func TestRequireGithub(t *testing.T) {
	c := &VcsConfig{Type: VcsGithub}
	_, err := c.RequireGithub()
	require.Error(t, err)

	c.Github = &GithubSettings{Token: "t", CheckID: "123", APIURL: "http://localhost/"}
	settings, err := c.RequireGithub()
	require.NoError(t, err)
	assert.Equal(t, "123", settings.CheckID)
}
