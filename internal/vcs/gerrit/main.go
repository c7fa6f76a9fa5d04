package gerrit

import (
	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/vcs"
	"git.home.luguber.info/inful/cibuilder/internal/vcs/gitvcs"
)

// MainDriver serves the main role for gerrit: the checkout cycle is plain
// git against the change ref, the review handle reports over gerrit ssh.
type MainDriver struct {
	*gitvcs.MainDriver
	review *Review
}

// ValidateSettings checks that the git settings can serve the gerrit main
// role without constructing anything. It never touches the filesystem or
// network.
func ValidateSettings(settings *config.GitSettings) error {
	if _, err := parseChangeRef(settings.Refspec); err != nil {
		return err
	}
	_, err := sshRunner(settings.Repo)
	return err
}

// NewMainDriver creates a gerrit main driver. The refspec must name a change
// ref (refs/changes/CC/CHANGE/PATCHSET) and the repo URL must be the gerrit
// ssh URL; both are validated here, before any side effect.
func NewMainDriver(settings *config.GitSettings, projectRoot string) (*MainDriver, error) {
	ref, err := parseChangeRef(settings.Refspec)
	if err != nil {
		return nil, err
	}
	run, err := sshRunner(settings.Repo)
	if err != nil {
		return nil, err
	}
	return &MainDriver{
		MainDriver: gitvcs.NewMainDriver(settings, projectRoot),
		review:     &Review{ref: ref, run: run},
	}, nil
}

// CodeReview returns the gerrit review handle for the change under build.
func (d *MainDriver) CodeReview() (vcs.CodeReview, error) {
	return d.review, nil
}
