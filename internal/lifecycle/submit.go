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

// SubmitVcs is the submit role wrapper: it validates the VCS configuration
// at construction and owns one lazily constructed submit driver.
type SubmitVcs struct {
	cfg      *config.Config
	recorder metrics.Recorder
	entry    submitEntry
	driver   vcs.SubmitDriver
}

// NewSubmitVcs validates the submit role configuration and returns the
// wrapper. Configuration errors surface here, before any side effect.
func NewSubmitVcs(cfg *config.Config, recorder metrics.Recorder) (*SubmitVcs, error) {
	entry, err := resolveEntry(cfg, vcs.RoleSubmit, submitFactories)
	if err != nil {
		return nil, err
	}
	if err := entry.validate(cfg); err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &SubmitVcs{cfg: cfg, recorder: recorder, entry: entry}, nil
}

// Driver returns the submit driver, constructing it on first use.
func (s *SubmitVcs) Driver() (vcs.SubmitDriver, error) {
	if s.driver == nil {
		driver, err := s.entry.construct(s.cfg)
		if err != nil {
			return nil, err
		}
		s.driver = driver
	}
	return s.driver, nil
}

// Submit records all local modifications as one remote change and returns
// its revision identifier.
func (s *SubmitVcs) Submit(ctx context.Context, description string) (string, error) {
	driver, err := s.Driver()
	if err != nil {
		return "", err
	}
	start := time.Now()
	revision, err := driver.Submit(ctx, description)
	s.recorder.ObserveDriverOp(string(s.cfg.Vcs.Type), "submit", time.Since(start), metrics.ResultOf(err))
	if err != nil {
		return "", err
	}
	slog.Info("Change submitted",
		logfields.VcsType(string(s.cfg.Vcs.Type)),
		logfields.Revision(revision))
	return revision, nil
}

// Finalize releases the driver if one was ever constructed. Idempotent.
func (s *SubmitVcs) Finalize() error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Finalize()
}
