package perforce

import (
	"context"
	"fmt"
	"regexp"

	"git.home.luguber.info/inful/cibuilder/internal/config"
)

var submittedRe = regexp.MustCompile(`Change (\d+) submitted`)

// SubmitDriver submits local modifications in the client workspace as one
// changelist.
type SubmitDriver struct {
	settings *config.PerforceSettings
	run      runFunc
}

// NewSubmitDriver creates a p4 submit driver.
func NewSubmitDriver(settings *config.PerforceSettings) *SubmitDriver {
	return &SubmitDriver{settings: settings, run: p4Runner(settings)}
}

// Submit reconciles the workspace against the depot (opening added, edited
// and deleted files) and submits the resulting changelist, returning its
// number.
func (d *SubmitDriver) Submit(ctx context.Context, description string) (string, error) {
	if d.settings.Client == "" {
		return "", fmt.Errorf("vcs.perforce.client is required for submitting")
	}
	if _, err := d.run(ctx, "", "-c", d.settings.Client, "reconcile", "-a", "-e", "-d", "//..."); err != nil {
		return "", fmt.Errorf("failed to reconcile workspace: %w", err)
	}
	out, err := d.run(ctx, "", "-c", d.settings.Client, "submit", "-d", description)
	if err != nil {
		return "", fmt.Errorf("failed to submit changelist: %w", err)
	}
	m := submittedRe.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("could not determine submitted changelist from p4 output: %s", out)
	}
	return m[1], nil
}

func (d *SubmitDriver) Finalize() error { return nil }
