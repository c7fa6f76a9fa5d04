package perforce

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/logfields"
	"git.home.luguber.info/inful/cibuilder/internal/vcs"
)

var changeLineRe = regexp.MustCompile(`^Change (\d+) `)

// MainDriver serves the main role against a Perforce depot: it owns a
// temporary client workspace mapping the depot path into the working
// directory.
type MainDriver struct {
	settings    *config.PerforceSettings
	projectRoot string
	run         runFunc

	clientCreated bool
	finalized     bool
	currentCL     string
}

// NewMainDriver creates a p4 main driver syncing into projectRoot.
func NewMainDriver(settings *config.PerforceSettings, projectRoot string) *MainDriver {
	return &MainDriver{settings: settings, projectRoot: projectRoot, run: p4Runner(settings)}
}

func (d *MainDriver) WorkingDir() string { return d.projectRoot }

// clientSpec renders the client workspace specification fed to p4 client -i.
func (d *MainDriver) clientSpec() string {
	return fmt.Sprintf("Client: %s\n\nOwner: %s\n\nRoot: %s\n\nView:\n\t%s //%s/...\n",
		d.settings.Client, d.settings.User, d.projectRoot, depotPath(d.settings), d.settings.Client)
}

// PrepareRepository creates the client workspace and force-syncs the depot
// path into the working directory.
func (d *MainDriver) PrepareRepository(ctx context.Context) error {
	if _, err := d.run(ctx, d.clientSpec(), "client", "-i"); err != nil {
		return fmt.Errorf("failed to create client workspace: %w", err)
	}
	d.clientCreated = true

	slog.Debug("Syncing depot", logfields.Path(d.projectRoot))
	if _, err := d.run(ctx, "", "-c", d.settings.Client, "sync", "-f"); err != nil {
		return fmt.Errorf("failed to sync sources: %w", err)
	}

	out, err := d.run(ctx, "", "-c", d.settings.Client, "changes", "-m1", "#have")
	if err != nil {
		return fmt.Errorf("failed to read synced changelist: %w", err)
	}
	if m := changeLineRe.FindStringSubmatch(strings.TrimSpace(out)); m != nil {
		d.currentCL = m[1]
	}
	slog.Info("Depot synced", logfields.Revision(d.currentCL), logfields.Path(d.projectRoot))
	return nil
}

// RepoStatus summarizes the connection and the synced changelist.
func (d *MainDriver) RepoStatus() (string, error) {
	if !d.clientCreated {
		return "", fmt.Errorf("client workspace is not prepared")
	}
	return fmt.Sprintf("Perforce server: %s\nClient: %s\nDepot path: %s\nCurrent changelist: %s",
		d.settings.Port, d.settings.Client, depotPath(d.settings), d.currentCL), nil
}

// CalculateFileDiff lists files opened in the client workspace.
func (d *MainDriver) CalculateFileDiff() (vcs.FileDiff, error) {
	out, err := d.run(context.Background(), "", "-c", d.settings.Client, "opened")
	if err != nil {
		return nil, fmt.Errorf("failed to list opened files: %w", err)
	}
	return parseOpened(out), nil
}

// CopyCLFilesAndRevert records the pending changelist contents, then reverts
// every opened file.
func (d *MainDriver) CopyCLFilesAndRevert() (vcs.FileDiff, error) {
	diff, err := d.CalculateFileDiff()
	if err != nil {
		return nil, err
	}
	if !diff.Empty() {
		if _, err := d.run(context.Background(), "", "-c", d.settings.Client, "revert", "//..."); err != nil {
			return nil, fmt.Errorf("failed to revert opened files: %w", err)
		}
	}
	return diff, nil
}

// Finalize deletes the temporary client workspace. Idempotent.
func (d *MainDriver) Finalize() error {
	if d.finalized || !d.clientCreated {
		d.finalized = true
		return nil
	}
	d.finalized = true
	if _, err := d.run(context.Background(), "", "client", "-d", d.settings.Client); err != nil {
		return fmt.Errorf("failed to delete client workspace: %w", err)
	}
	return nil
}

func (d *MainDriver) CodeReview() (vcs.CodeReview, error) {
	return nil, vcs.ErrReviewUnsupported
}

// parseOpened converts p4 opened output lines of the form
// "//depot/file#3 - edit default change (text)" into a FileDiff.
func parseOpened(out string) vcs.FileDiff {
	diff := vcs.FileDiff{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "//") {
			continue
		}
		path, rest, found := strings.Cut(line, " - ")
		if !found {
			continue
		}
		if idx := strings.IndexByte(path, '#'); idx >= 0 {
			path = path[:idx]
		}
		action := strings.Fields(rest)
		if len(action) == 0 {
			continue
		}
		switch action[0] {
		case "add", "branch", "move/add", "import":
			diff = append(diff, vcs.FileChange{Action: vcs.ActionAdd, Path: path})
		case "delete", "move/delete":
			diff = append(diff, vcs.FileChange{Action: vcs.ActionDelete, Path: path})
		default:
			diff = append(diff, vcs.FileChange{Action: vcs.ActionModify, Path: path})
		}
	}
	return diff
}
