package gerrit

import (
	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/vcs/gitvcs"
)

// NewSubmitDriver creates a gerrit submit driver. Gerrit accepts new changes
// through its refs/for/ magic branch, so the commit built from the working
// directory is pushed to refs/for/<refspec> for review instead of directly
// to the branch.
func NewSubmitDriver(settings *config.GitSettings, projectRoot string) *gitvcs.SubmitDriver {
	return gitvcs.NewSubmitDriverTo(settings, projectRoot, "refs/for/"+settings.Refspec)
}
