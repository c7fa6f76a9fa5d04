// Package poller drives change detection: it asks the poll role wrapper for
// new changes, persists the poll cursor, triggers the build server and
// publishes change events.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/logfields"
	"git.home.luguber.info/inful/cibuilder/internal/pollstate"
	"git.home.luguber.info/inful/cibuilder/internal/vcs"
)

// ChangeSource detects changes newer than a cursor. Satisfied by the poll
// role wrapper.
type ChangeSource interface {
	DetectChanges(ctx context.Context, since string) ([]vcs.Change, error)
	Finalize() error
}

// Notifier publishes one detected change to interested subscribers. Nil
// notifiers are tolerated; publishing is optional.
type Notifier interface {
	PublishChange(ctx context.Context, event ChangeEvent) error
}

// ChangeEvent is the payload published per detected change.
type ChangeEvent struct {
	VcsType    string    `json:"vcs_type"`
	Repository string    `json:"repository"`
	Refspec    string    `json:"refspec,omitempty"`
	ID         string    `json:"id"`
	Message    string    `json:"message,omitempty"`
	When       time.Time `json:"when,omitempty"`
}

// Poller owns one polled source: the change source, its persisted cursor
// and the downstream notifications.
type Poller struct {
	cfg      *config.Config
	source   ChangeSource
	store    *pollstate.Store
	notifier Notifier
	client   *http.Client

	repository string
	refspec    string
}

// New creates a poller for the configured source. store is required;
// notifier may be nil.
func New(cfg *config.Config, source ChangeSource, store *pollstate.Store, notifier Notifier) *Poller {
	repository, refspec := sourceKey(cfg)
	return &Poller{
		cfg:        cfg,
		source:     source,
		store:      store,
		notifier:   notifier,
		client:     &http.Client{Timeout: 30 * time.Second},
		repository: repository,
		refspec:    refspec,
	}
}

// sourceKey identifies the polled source for cursor storage.
func sourceKey(cfg *config.Config) (repository, refspec string) {
	switch cfg.Vcs.Type {
	case config.VcsP4:
		if cfg.Vcs.Perforce != nil {
			return cfg.Vcs.Perforce.Port, cfg.Vcs.Perforce.DepotPath
		}
	case config.VcsGit, config.VcsGerrit, config.VcsGithub:
		if cfg.Vcs.Git != nil {
			return cfg.Vcs.Git.Repo, cfg.Vcs.Git.Refspec
		}
	}
	return "", ""
}

// Poll runs one detection cycle: read the cursor, detect, trigger and
// notify per change, advance the cursor. Returns the processed changes.
func (p *Poller) Poll(ctx context.Context) ([]vcs.Change, error) {
	since, err := p.store.LastSeen(ctx, string(p.cfg.Vcs.Type), p.repository, p.refspec)
	if err != nil {
		return nil, err
	}

	changes, err := p.source.DetectChanges(ctx, since)
	if err != nil {
		return nil, err
	}
	if max := p.cfg.Poll.MaxChanges; max > 0 && len(changes) > max {
		slog.Warn("Capping detected changes",
			logfields.Changes(len(changes)),
			slog.Int("max_changes", max))
		changes = changes[:max]
	}
	if len(changes) == 0 {
		return nil, nil
	}

	for _, change := range changes {
		p.dispatch(ctx, change)
	}

	latest := changes[len(changes)-1].ID
	if err := p.store.SetLastSeen(ctx, string(p.cfg.Vcs.Type), p.repository, p.refspec, latest); err != nil {
		return nil, err
	}
	slog.Info("Poll cycle finished",
		logfields.VcsType(string(p.cfg.Vcs.Type)),
		logfields.Changes(len(changes)),
		logfields.Revision(latest))
	return changes, nil
}

// dispatch triggers the build server and publishes the change event.
// Failures here are logged, not fatal: a missed trigger must not stall the
// cursor and cause duplicate triggers on the next cycle.
func (p *Poller) dispatch(ctx context.Context, change vcs.Change) {
	if p.cfg.Poll.TriggerURL != "" {
		if err := p.trigger(ctx, change); err != nil {
			slog.Error("Failed to trigger build",
				logfields.Revision(change.ID),
				logfields.Error(err))
		}
	}
	if p.notifier != nil {
		event := ChangeEvent{
			VcsType:    string(p.cfg.Vcs.Type),
			Repository: p.repository,
			Refspec:    p.refspec,
			ID:         change.ID,
			Message:    change.Message,
			When:       change.When,
		}
		if err := p.notifier.PublishChange(ctx, event); err != nil {
			slog.Error("Failed to publish change event",
				logfields.Revision(change.ID),
				logfields.Error(err))
		}
	}
}

// trigger notifies the build server about one change. URLs containing %s
// get the change identifier substituted, others get it appended as a query
// parameter.
func (p *Poller) trigger(ctx context.Context, change vcs.Change) error {
	url := p.cfg.Poll.TriggerURL
	if strings.Contains(url, "%s") {
		url = fmt.Sprintf(url, change.ID)
	} else {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url = url + sep + "change=" + change.ID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("build server answered %s", resp.Status)
	}
	slog.Debug("Build triggered", logfields.Revision(change.ID), logfields.URL(url))
	return nil
}

// Watch polls on the configured interval until ctx is cancelled.
func (p *Poller) Watch(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(p.cfg.Poll.Interval()),
		gocron.NewTask(func() {
			if _, err := p.Poll(ctx); err != nil {
				slog.Error("Poll cycle failed", logfields.Error(err))
			}
		}),
		gocron.WithName("poll-"+string(p.cfg.Vcs.Type)),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule poll job: %w", err)
	}

	slog.Info("Starting poll watch",
		logfields.VcsType(string(p.cfg.Vcs.Type)),
		slog.Duration("interval", p.cfg.Poll.Interval()))
	scheduler.Start()
	<-ctx.Done()
	return scheduler.Shutdown()
}

// Finalize releases the change source.
func (p *Poller) Finalize() error {
	return p.source.Finalize()
}
