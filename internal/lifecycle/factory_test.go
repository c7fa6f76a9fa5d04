package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/errors"
	"git.home.luguber.info/inful/cibuilder/internal/vcs/gitvcs"
)

func baseConfig(t *testing.T, vcsConfig config.VcsConfig) *config.Config {
	t.Helper()
	return &config.Config{
		Vcs: vcsConfig,
		Build: config.BuildConfig{
			ProjectRoot: t.TempDir() + "/sources",
		},
	}
}

func gitConfig(t *testing.T) *config.Config {
	return baseConfig(t, config.VcsConfig{
		Type: config.VcsGit,
		Git:  &config.GitSettings{Repo: "https://example.com/project.git", Refspec: "main"},
	})
}

func TestUnknownTypeFailsConstruction(t *testing.T) {
	cfg := baseConfig(t, config.VcsConfig{Type: "svn"})

	_, err := NewPollVcs(cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))

	_, err = NewSubmitVcs(cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))

	_, err = NewMainVcs(cfg, MainVcsOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
	assert.Contains(t, err.Error(), "svn")
}

func TestUnsetTypeEnumeratesSupportedTypes(t *testing.T) {
	cfg := baseConfig(t, config.VcsConfig{})

	_, err := NewMainVcs(cfg, MainVcsOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
	assert.Contains(t, err.Error(), "none, p4, git, gerrit, github")
}

func TestMissingSettingsFailConstruction(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.VcsConfig
		message string
	}{
		{
			name:    "git without refspec",
			cfg:     config.VcsConfig{Type: config.VcsGit, Git: &config.GitSettings{Repo: "https://example.com/p.git"}},
			message: "vcs.git.refspec",
		},
		{
			name:    "p4 without password",
			cfg:     config.VcsConfig{Type: config.VcsP4, Perforce: &config.PerforceSettings{Port: "p:1666", User: "ci"}},
			message: "vcs.perforce.password",
		},
		{
			name:    "none without source dir",
			cfg:     config.VcsConfig{Type: config.VcsNone},
			message: "vcs.local.source_dir",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMainVcs(baseConfig(t, tt.cfg), MainVcsOptions{})
			require.Error(t, err)
			assert.True(t, errors.IsConfig(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestPerforceClientRequiredForMainAndSubmitOnly(t *testing.T) {
	cfg := baseConfig(t, config.VcsConfig{
		Type:     config.VcsP4,
		Perforce: &config.PerforceSettings{Port: "p:1666", User: "ci", Password: "secret"},
	})

	_, err := NewPollVcs(cfg, nil)
	assert.NoError(t, err, "polling needs no client workspace")

	_, err = NewSubmitVcs(cfg, nil)
	assert.Error(t, err)

	_, err = NewMainVcs(cfg, MainVcsOptions{})
	assert.Error(t, err)
}

func TestGerritPollingUsesGitDriver(t *testing.T) {
	gerritCfg := baseConfig(t, config.VcsConfig{
		Type: config.VcsGerrit,
		Git:  &config.GitSettings{Repo: "ssh://ci@gerrit.example.com:29418/project", Refspec: "master"},
	})
	gitCfg := gitConfig(t)

	gerritPoll, err := NewPollVcs(gerritCfg, nil)
	require.NoError(t, err)
	gitPoll, err := NewPollVcs(gitCfg, nil)
	require.NoError(t, err)

	gerritDriver, err := gerritPoll.Driver()
	require.NoError(t, err)
	gitDriver, err := gitPoll.Driver()
	require.NoError(t, err)

	assert.IsType(t, &gitvcs.PollDriver{}, gerritDriver)
	assert.IsType(t, &gitvcs.PollDriver{}, gitDriver)
}

func TestDriverIsMemoized(t *testing.T) {
	wrapper, err := NewPollVcs(gitConfig(t), nil)
	require.NoError(t, err)

	first, err := wrapper.Driver()
	require.NoError(t, err)
	second, err := wrapper.Driver()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestSubmitOnLocalDirectoryFails(t *testing.T) {
	cfg := baseConfig(t, config.VcsConfig{
		Type:  config.VcsNone,
		Local: &config.LocalSettings{SourceDir: t.TempDir()},
	})

	wrapper, err := NewSubmitVcs(cfg, nil)
	require.NoError(t, err)

	_, err = wrapper.Submit(context.Background(), "anything")
	assert.Error(t, err)
}

func TestFinalizeWithoutDriverUse(t *testing.T) {
	wrapper, err := NewPollVcs(gitConfig(t), nil)
	require.NoError(t, err)
	assert.NoError(t, wrapper.Finalize())
}
