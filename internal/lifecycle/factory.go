// Package lifecycle wires configuration to concrete VCS drivers and
// sequences the per-build driver operations. It contains the per-role driver
// factories, the role wrappers (PollVcs, SubmitVcs, MainVcs) and the main
// lifecycle coordinator.
package lifecycle

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/errors"
	"git.home.luguber.info/inful/cibuilder/internal/vcs"
	"git.home.luguber.info/inful/cibuilder/internal/vcs/gerrit"
	"git.home.luguber.info/inful/cibuilder/internal/vcs/github"
	"git.home.luguber.info/inful/cibuilder/internal/vcs/gitvcs"
	"git.home.luguber.info/inful/cibuilder/internal/vcs/localvcs"
	"git.home.luguber.info/inful/cibuilder/internal/vcs/perforce"
)

// A factory entry separates fail-fast configuration validation from driver
// construction: validate runs at role wrapper construction time and must not
// touch the filesystem or network, construct runs lazily on first driver use
// and is memoized by the wrapper.
type pollEntry struct {
	validate  func(cfg *config.Config) error
	construct func(cfg *config.Config) (vcs.PollDriver, error)
}

type submitEntry struct {
	validate  func(cfg *config.Config) error
	construct func(cfg *config.Config) (vcs.SubmitDriver, error)
}

type mainEntry struct {
	validate  func(cfg *config.Config) error
	construct func(cfg *config.Config) (vcs.MainDriver, error)
}

// Polling a gerrit or github repository is plain git polling: changes arrive
// on ordinary git refs, so all three share one driver.
var pollFactories = map[config.VcsType]pollEntry{
	config.VcsNone: {
		validate:  func(cfg *config.Config) error { _, err := cfg.Vcs.RequireLocal(); return err },
		construct: func(cfg *config.Config) (vcs.PollDriver, error) { return localvcs.NewPollDriver(), nil },
	},
	config.VcsP4: {
		validate: func(cfg *config.Config) error { _, err := cfg.Vcs.RequirePerforce(false); return err },
		construct: func(cfg *config.Config) (vcs.PollDriver, error) {
			return perforce.NewPollDriver(cfg.Vcs.Perforce), nil
		},
	},
	config.VcsGit:    gitPollEntry,
	config.VcsGerrit: gitPollEntry,
	config.VcsGithub: gitPollEntry,
}

var gitPollEntry = pollEntry{
	validate: func(cfg *config.Config) error { _, err := cfg.Vcs.RequireGit(); return err },
	construct: func(cfg *config.Config) (vcs.PollDriver, error) {
		return gitvcs.NewPollDriver(cfg.Vcs.Git), nil
	},
}

var submitFactories = map[config.VcsType]submitEntry{
	config.VcsNone: {
		validate:  func(cfg *config.Config) error { _, err := cfg.Vcs.RequireLocal(); return err },
		construct: func(cfg *config.Config) (vcs.SubmitDriver, error) { return localvcs.NewSubmitDriver(), nil },
	},
	config.VcsP4: {
		validate: func(cfg *config.Config) error { _, err := cfg.Vcs.RequirePerforce(true); return err },
		construct: func(cfg *config.Config) (vcs.SubmitDriver, error) {
			return perforce.NewSubmitDriver(cfg.Vcs.Perforce), nil
		},
	},
	config.VcsGit:    gitSubmitEntry,
	config.VcsGithub: gitSubmitEntry,
	config.VcsGerrit: {
		validate: func(cfg *config.Config) error { _, err := cfg.Vcs.RequireGit(); return err },
		construct: func(cfg *config.Config) (vcs.SubmitDriver, error) {
			return gerrit.NewSubmitDriver(cfg.Vcs.Git, cfg.Build.ProjectRoot), nil
		},
	},
}

var gitSubmitEntry = submitEntry{
	validate: func(cfg *config.Config) error { _, err := cfg.Vcs.RequireGit(); return err },
	construct: func(cfg *config.Config) (vcs.SubmitDriver, error) {
		return gitvcs.NewSubmitDriver(cfg.Vcs.Git, cfg.Build.ProjectRoot), nil
	},
}

var mainFactories = map[config.VcsType]mainEntry{
	config.VcsNone: {
		validate: func(cfg *config.Config) error { _, err := cfg.Vcs.RequireLocal(); return err },
		construct: func(cfg *config.Config) (vcs.MainDriver, error) {
			return localvcs.NewMainDriver(cfg.Vcs.Local), nil
		},
	},
	config.VcsP4: {
		validate: func(cfg *config.Config) error { _, err := cfg.Vcs.RequirePerforce(true); return err },
		construct: func(cfg *config.Config) (vcs.MainDriver, error) {
			return perforce.NewMainDriver(cfg.Vcs.Perforce, cfg.Build.ProjectRoot), nil
		},
	},
	config.VcsGit: {
		validate: func(cfg *config.Config) error { _, err := cfg.Vcs.RequireGit(); return err },
		construct: func(cfg *config.Config) (vcs.MainDriver, error) {
			return gitvcs.NewMainDriver(cfg.Vcs.Git, cfg.Build.ProjectRoot), nil
		},
	},
	config.VcsGerrit: {
		validate: func(cfg *config.Config) error {
			settings, err := cfg.Vcs.RequireGit()
			if err != nil {
				return err
			}
			return gerrit.ValidateSettings(settings)
		},
		construct: func(cfg *config.Config) (vcs.MainDriver, error) {
			return gerrit.NewMainDriver(cfg.Vcs.Git, cfg.Build.ProjectRoot)
		},
	},
	config.VcsGithub: {
		validate: func(cfg *config.Config) error {
			settings, err := cfg.Vcs.RequireGit()
			if err != nil {
				return err
			}
			if !cfg.Vcs.ReportToReview {
				return nil
			}
			checkRun, err := cfg.Vcs.RequireGithub()
			if err != nil {
				return err
			}
			return github.ValidateSettings(checkRun, settings)
		},
		construct: func(cfg *config.Config) (vcs.MainDriver, error) {
			var settings *config.GithubSettings
			if cfg.Vcs.ReportToReview {
				settings = cfg.Vcs.Github
			}
			return github.NewMainDriver(cfg.Vcs.Git, settings, cfg.Build.ProjectRoot)
		},
	},
}

// resolveEntry validates the configured VCS type and looks it up in the
// role's factory table. Both failure modes are configuration errors raised
// before any side effect.
func resolveEntry[E any](cfg *config.Config, role vcs.Role, table map[config.VcsType]E) (E, error) {
	var zero E
	if err := cfg.Vcs.Validate(); err != nil {
		return zero, err
	}
	entry, ok := table[cfg.Vcs.Type]
	if !ok {
		return zero, errors.ConfigError(fmt.Sprintf(
			"VCS type %q is not supported for the %s role; supported types are: %s",
			cfg.Vcs.Type, role, strings.Join(config.VcsTypeNames(), ", ")))
	}
	return entry, nil
}
