package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/cibuilder/internal/errors"
)

// VcsType selects the version control backend for a build.
type VcsType string

const (
	VcsNone   VcsType = "none"
	VcsP4     VcsType = "p4"
	VcsGit    VcsType = "git"
	VcsGerrit VcsType = "gerrit"
	VcsGithub VcsType = "github"
)

// VcsTypeNames lists every supported backend type, in declaration order.
func VcsTypeNames() []string {
	return []string{"none", "p4", "git", "gerrit", "github"}
}

// Known reports whether t is one of the supported backend types.
func (t VcsType) Known() bool {
	switch t {
	case VcsNone, VcsP4, VcsGit, VcsGerrit, VcsGithub:
		return true
	}
	return false
}

// VcsConfig is the tagged-union VCS configuration: Type selects the backend
// and the matching settings struct carries its backend-specific parameters.
// Settings for non-selected backends are ignored.
type VcsConfig struct {
	Type           VcsType `yaml:"type"`
	ReportToReview bool    `yaml:"report_to_review,omitempty"`

	Git      *GitSettings      `yaml:"git,omitempty"`
	Perforce *PerforceSettings `yaml:"perforce,omitempty"`
	Local    *LocalSettings    `yaml:"local,omitempty"`
	Github   *GithubSettings   `yaml:"github,omitempty"`
}

// GitSettings configures the git family of backends (git, gerrit, github).
type GitSettings struct {
	Repo    string `yaml:"repo"`
	Refspec string `yaml:"refspec"`
	// CheckoutID pins the checkout to a specific commit instead of the
	// refspec head.
	CheckoutID string `yaml:"checkout_id,omitempty"`
	// Submit identity. Optional: backends without a separate submit
	// identity tolerate absence.
	User  string `yaml:"user,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// PerforceSettings configures the p4 backend.
type PerforceSettings struct {
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// Client is required for main-role builds only.
	Client string `yaml:"client,omitempty"`
	// Depot path mapped into the client workspace, e.g. //depot/project/...
	DepotPath string `yaml:"depot_path,omitempty"`
}

// LocalSettings configures the no-VCS local directory backend.
type LocalSettings struct {
	SourceDir string `yaml:"source_dir"`
}

// GithubSettings carries the check-run reporting parameters used when
// report_to_review is enabled on the github backend.
type GithubSettings struct {
	Token   string `yaml:"token"`
	CheckID string `yaml:"check_id"`
	APIURL  string `yaml:"api_url"`
}

// missingTypeText is the remediation message for an unset VCS type. It
// enumerates every supported type and its minimum required settings.
func missingTypeText() string {
	return fmt.Sprintf(`the repository (VCS) type is not set

The repository type defines the version control system that is used for
performing the requested action, for example getting project sources for a
CI build.

The following types are supported: %s.

Each of these types requires supplying its own configuration parameters.
At the minimum, the following parameters are required:
  * "git", "github" and "gerrit" - vcs.git.repo and vcs.git.refspec
  * "p4"                         - vcs.perforce.port, vcs.perforce.user and vcs.perforce.password
  * "none"                       - vcs.local.source_dir

Depending on the requested action, additional type-specific parameters are
required. For example, vcs.perforce.client is required for CI builds with p4.`,
		strings.Join(VcsTypeNames(), ", "))
}

// Validate checks that the VCS type is set and recognized. It never touches
// the filesystem or network.
func (c *VcsConfig) Validate() error {
	if c.Type == "" {
		return errors.ConfigError(missingTypeText())
	}
	if !c.Type.Known() {
		return errors.ConfigError(fmt.Sprintf("unknown VCS type %q; supported types are: %s",
			c.Type, strings.Join(VcsTypeNames(), ", "))).WithContext("type", string(c.Type))
	}
	return nil
}

// RequireGit returns the git settings, failing when the repo URL or refspec
// is missing. Used by the git, gerrit and github backends.
func (c *VcsConfig) RequireGit() (*GitSettings, error) {
	if c.Git == nil || c.Git.Repo == "" || c.Git.Refspec == "" {
		return nil, errors.ConfigError(fmt.Sprintf(
			"VCS type %q requires vcs.git.repo and vcs.git.refspec to be set", c.Type))
	}
	return c.Git, nil
}

// RequirePerforce returns the perforce settings, failing when the connection
// parameters are missing. needClient additionally demands a client workspace
// name (main-role builds).
func (c *VcsConfig) RequirePerforce(needClient bool) (*PerforceSettings, error) {
	if c.Perforce == nil || c.Perforce.Port == "" || c.Perforce.User == "" || c.Perforce.Password == "" {
		return nil, errors.ConfigError(
			`VCS type "p4" requires vcs.perforce.port, vcs.perforce.user and vcs.perforce.password to be set`)
	}
	if needClient && c.Perforce.Client == "" {
		return nil, errors.ConfigError(
			`VCS type "p4" requires vcs.perforce.client to be set for CI builds`)
	}
	return c.Perforce, nil
}

// RequireLocal returns the local directory settings, failing when the source
// directory is missing.
func (c *VcsConfig) RequireLocal() (*LocalSettings, error) {
	if c.Local == nil || c.Local.SourceDir == "" {
		return nil, errors.ConfigError(`VCS type "none" requires vcs.local.source_dir to be set`)
	}
	return c.Local, nil
}

// RequireGithub returns the github check-run settings, failing when any of
// the reporting parameters is missing.
func (c *VcsConfig) RequireGithub() (*GithubSettings, error) {
	if c.Github == nil || c.Github.Token == "" || c.Github.CheckID == "" || c.Github.APIURL == "" {
		return nil, errors.ConfigError(
			`review reporting for VCS type "github" requires vcs.github.token, vcs.github.check_id and vcs.github.api_url to be set`)
	}
	return c.Github, nil
}
