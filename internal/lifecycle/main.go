package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/cibuilder/internal/apisupport"
	"git.home.luguber.info/inful/cibuilder/internal/artifacts"
	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/errors"
	"git.home.luguber.info/inful/cibuilder/internal/logfields"
	"git.home.luguber.info/inful/cibuilder/internal/metrics"
	"git.home.luguber.info/inful/cibuilder/internal/structure"
	"git.home.luguber.info/inful/cibuilder/internal/vcs"
)

// repositoryStateFile is the audit artifact written during preparation.
const repositoryStateFile = "REPOSITORY_STATE.txt"

// MainVcsOptions carries the optional collaborators of the main role
// wrapper. Nil fields disable the corresponding concern.
type MainVcsOptions struct {
	Artifacts *artifacts.Collector
	Api       *apisupport.ApiSupport
	Recorder  metrics.Recorder
}

// MainVcs is the main role wrapper and lifecycle coordinator. It owns the
// driver for the checkout/build/revert cycle and sequences its operations
// with artifact recording and diff propagation.
type MainVcs struct {
	cfg       *config.Config
	blocks    *structure.Blocks
	recorder  metrics.Recorder
	artifacts *artifacts.Collector
	api       *apisupport.ApiSupport

	entry  mainEntry
	driver vcs.MainDriver

	reportToReview bool
	review         vcs.CodeReview

	finalized bool
}

// NewMainVcs validates the main role configuration and returns the wrapper.
// When review reporting is requested the review handle is resolved here;
// requesting it on a backend without review capability fails construction
// instead of silently degrading.
func NewMainVcs(cfg *config.Config, opts MainVcsOptions) (*MainVcs, error) {
	entry, err := resolveEntry(cfg, vcs.RoleMain, mainFactories)
	if err != nil {
		return nil, err
	}
	if err := entry.validate(cfg); err != nil {
		return nil, err
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Api == nil {
		opts.Api = apisupport.New()
	}
	m := &MainVcs{
		cfg:            cfg,
		blocks:         structure.New(opts.Recorder),
		recorder:       opts.Recorder,
		artifacts:      opts.Artifacts,
		api:            opts.Api,
		entry:          entry,
		reportToReview: cfg.Vcs.ReportToReview,
	}
	if m.reportToReview {
		driver, err := m.Driver()
		if err != nil {
			return nil, err
		}
		review, err := driver.CodeReview()
		if err != nil {
			return nil, errors.ReviewError(fmt.Sprintf(
				"review reporting is requested but VCS type %q has no code review integration", cfg.Vcs.Type))
		}
		m.review = review
	}
	return m, nil
}

// Driver returns the main driver, constructing it on first use.
func (m *MainVcs) Driver() (vcs.MainDriver, error) {
	if m.driver == nil {
		driver, err := m.entry.construct(m.cfg)
		if err != nil {
			return nil, err
		}
		m.driver = driver
	}
	return m.driver, nil
}

// PrepareRepository materializes the configured revision, records the
// repository state artifact and forwards the file diff to the review API
// collaborator.
func (m *MainVcs) PrepareRepository(ctx context.Context) error {
	return m.blocks.Run("Preparing repository", func() error {
		return m.prepare(ctx)
	})
}

func (m *MainVcs) prepare(ctx context.Context) error {
	driver, err := m.Driver()
	if err != nil {
		return err
	}

	state, err := m.createStateFile()
	if err != nil {
		return err
	}
	// The artifact is flushed and closed on every exit path: a failed
	// preparation still leaves the partial content on disk for diagnosis.
	defer state.Close()

	if err := m.observe("prepare", func() error { return driver.PrepareRepository(ctx) }); err != nil {
		return err
	}

	status, err := driver.RepoStatus()
	if err != nil {
		return err
	}
	if err := state.WriteString(status + "\n"); err != nil {
		return err
	}
	if err := state.WriteString("\nFile list:\n\n"); err != nil {
		return err
	}
	listing, err := fileListing(driver.WorkingDir())
	if err != nil {
		return err
	}
	if err := state.WriteString(listing + "\n"); err != nil {
		return err
	}
	if err := state.Close(); err != nil {
		return err
	}

	diff, err := driver.CalculateFileDiff()
	if err != nil {
		return err
	}
	payload, err := diff.ToJSON()
	if err != nil {
		return err
	}
	m.api.AddFileDiff(payload)
	return nil
}

// stateWriter is the scoped artifact handle used during preparation. A
// discarding implementation stands in when no artifact collector is
// configured.
type stateWriter interface {
	WriteString(s string) error
	Close() error
}

type discardState struct{}

func (discardState) WriteString(string) error { return nil }
func (discardState) Close() error             { return nil }

func (m *MainVcs) createStateFile() (stateWriter, error) {
	if m.artifacts == nil {
		return discardState{}, nil
	}
	return m.artifacts.CreateTextFile(repositoryStateFile)
}

// CleanSourcesSilently removes the build-owned working directory. Failures
// are logged and swallowed: cleanup is a convenience, never a
// correctness-bearing step. The local directory backend is unaffected since
// its sources live outside the project root.
func (m *MainVcs) CleanSourcesSilently() {
	if err := os.RemoveAll(m.cfg.Build.ProjectRoot); err != nil {
		slog.Warn("Failed to clean sources",
			logfields.Path(m.cfg.Build.ProjectRoot),
			logfields.Error(err))
	}
}

// RevertRepository reverts local modifications back to the prepared
// reference state and returns what was reverted. Failures propagate: an
// un-reverted workspace would corrupt the next build using it.
func (m *MainVcs) RevertRepository() (vcs.FileDiff, error) {
	var diff vcs.FileDiff
	err := m.blocks.Run("Revert repository", func() error {
		driver, err := m.Driver()
		if err != nil {
			return err
		}
		return m.observe("revert", func() error {
			var opErr error
			diff, opErr = driver.CopyCLFilesAndRevert()
			return opErr
		})
	})
	if err != nil {
		return nil, err
	}
	return diff, nil
}

// Finalize releases driver resources. Idempotent; runs regardless of build
// success upstream.
func (m *MainVcs) Finalize() error {
	if m.finalized {
		return nil
	}
	m.finalized = true
	if m.driver == nil {
		return nil
	}
	return m.blocks.Run("Finalizing", func() error {
		return m.observe("finalize", m.driver.Finalize)
	})
}

// IsLatestReviewVersion reports whether the change under build is still the
// newest one on its review. Always true when review reporting is off.
func (m *MainVcs) IsLatestReviewVersion(ctx context.Context) (bool, error) {
	if !m.reportToReview {
		return true, nil
	}
	return m.review.IsLatestVersion(ctx)
}

// ReportBuildStarted notifies the review system that the build began. A
// no-op when review reporting is off or the review handle cannot report.
func (m *MainVcs) ReportBuildStarted(ctx context.Context) error {
	if reporter, ok := m.review.(vcs.ReviewReporter); ok {
		return reporter.ReportBuildStarted(ctx)
	}
	return nil
}

// ReportBuildResult notifies the review system of the build outcome. A
// no-op when review reporting is off or the review handle cannot report.
func (m *MainVcs) ReportBuildResult(ctx context.Context, success bool) error {
	if reporter, ok := m.review.(vcs.ReviewReporter); ok {
		return reporter.ReportBuildResult(ctx, success)
	}
	return nil
}

// observe times one driver operation for the metrics recorder.
func (m *MainVcs) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	m.recorder.ObserveDriverOp(string(m.cfg.Vcs.Type), op, time.Since(start), metrics.ResultOf(err))
	return err
}
