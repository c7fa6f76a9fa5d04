package perforce

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/vcs"
)

// PollDriver detects submitted changelists on the configured depot path.
type PollDriver struct {
	settings *config.PerforceSettings
	run      runFunc
}

// NewPollDriver creates a p4 poll driver.
func NewPollDriver(settings *config.PerforceSettings) *PollDriver {
	return &PollDriver{settings: settings, run: p4Runner(settings)}
}

// DetectChanges returns submitted changelists newer than since (exclusive),
// oldest first. An empty since yields only the latest changelist.
func (d *PollDriver) DetectChanges(ctx context.Context, since string) ([]vcs.Change, error) {
	depot := depotPath(d.settings)

	var out string
	var err error
	if since == "" {
		out, err = d.run(ctx, "", "changes", "-s", "submitted", "-m1", depot)
	} else {
		out, err = d.run(ctx, "", "changes", "-s", "submitted", fmt.Sprintf("%s@%s,#head", depot, since))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}

	// p4 changes prints newest first; reverse and drop the since boundary.
	var newest []vcs.Change
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		m := changeLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if m[1] == since {
			continue
		}
		change := vcs.Change{ID: m[1]}
		if start := strings.Index(line, "'"); start >= 0 {
			change.Message = strings.Trim(line[start:], "'")
		}
		newest = append(newest, change)
	}

	oldest := make([]vcs.Change, 0, len(newest))
	for i := len(newest) - 1; i >= 0; i-- {
		oldest = append(oldest, newest[i])
	}
	return oldest, nil
}

func (d *PollDriver) Finalize() error { return nil }
