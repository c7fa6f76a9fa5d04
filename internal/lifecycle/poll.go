package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/logfields"
	"git.home.luguber.info/inful/cibuilder/internal/metrics"
	"git.home.luguber.info/inful/cibuilder/internal/vcs"
)

// PollVcs is the poll role wrapper: it validates the VCS configuration at
// construction and owns one lazily constructed poll driver.
type PollVcs struct {
	cfg      *config.Config
	recorder metrics.Recorder
	entry    pollEntry
	driver   vcs.PollDriver
}

// NewPollVcs validates the poll role configuration and returns the wrapper.
// No driver is constructed yet; configuration errors surface here, before
// any filesystem or network side effect.
func NewPollVcs(cfg *config.Config, recorder metrics.Recorder) (*PollVcs, error) {
	entry, err := resolveEntry(cfg, vcs.RolePoll, pollFactories)
	if err != nil {
		return nil, err
	}
	if err := entry.validate(cfg); err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &PollVcs{cfg: cfg, recorder: recorder, entry: entry}, nil
}

// Driver returns the poll driver, constructing it on first use.
func (p *PollVcs) Driver() (vcs.PollDriver, error) {
	if p.driver == nil {
		driver, err := p.entry.construct(p.cfg)
		if err != nil {
			return nil, err
		}
		p.driver = driver
	}
	return p.driver, nil
}

// DetectChanges returns changes newer than since (exclusive), oldest first.
func (p *PollVcs) DetectChanges(ctx context.Context, since string) ([]vcs.Change, error) {
	driver, err := p.Driver()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	changes, err := driver.DetectChanges(ctx, since)
	p.recorder.ObserveDriverOp(string(p.cfg.Vcs.Type), "detect_changes", time.Since(start), metrics.ResultOf(err))
	if err != nil {
		return nil, err
	}
	p.recorder.AddPollChanges(string(p.cfg.Vcs.Type), len(changes))
	slog.Debug("Change detection finished",
		logfields.VcsType(string(p.cfg.Vcs.Type)),
		logfields.Changes(len(changes)))
	return changes, nil
}

// Finalize releases the driver if one was ever constructed. Idempotent.
func (p *PollVcs) Finalize() error {
	if p.driver == nil {
		return nil
	}
	return p.driver.Finalize()
}
