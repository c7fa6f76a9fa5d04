// Package github implements the github VCS drivers: git checkout semantics
// from the gitvcs package plus build reporting through the check runs REST
// API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/errors"
)

// checkRunsAccept opts in to the check runs API.
const checkRunsAccept = "application/vnd.github.antiope-preview+json"

// Review updates the check run associated with the commit under build.
type Review struct {
	settings *config.GithubSettings
	// checkRunURL is the fully resolved check runs endpoint for this build.
	checkRunURL string
	client      *http.Client
	// headRevision reports the current remote head of the built refspec.
	// Injected in tests.
	headRevision func(ctx context.Context) (string, error)
	// checkoutID is the commit the build was started for.
	checkoutID string
}

// ValidateSettings checks that the check-run settings can serve review
// reporting for the configured repository. It never touches the network.
func ValidateSettings(settings *config.GithubSettings, git *config.GitSettings) error {
	_, err := checkRunURL(settings, git.Repo)
	return err
}

// NewReview creates a check-run review handle for the repository at repoURL.
func NewReview(settings *config.GithubSettings, git *config.GitSettings) (*Review, error) {
	endpoint, err := checkRunURL(settings, git.Repo)
	if err != nil {
		return nil, err
	}
	return &Review{
		settings:     settings,
		checkRunURL:  endpoint,
		client:       &http.Client{Timeout: 30 * time.Second},
		headRevision: remoteHead(git),
		checkoutID:   git.CheckoutID,
	}, nil
}

// checkRunURL resolves the check runs endpoint from the API root, the
// repository URL and the check run identifier.
func checkRunURL(settings *config.GithubSettings, repo string) (string, error) {
	u, err := url.Parse(repo)
	if err != nil || u.Path == "" {
		return "", errors.ConfigError(fmt.Sprintf(
			"github requires vcs.git.repo to be a repository URL like https://github.com/owner/project.git, got %q", repo))
	}
	path := strings.TrimSuffix(strings.Trim(u.Path, "/"), ".git")
	if !strings.Contains(path, "/") {
		return "", errors.ConfigError(fmt.Sprintf(
			"github repository URL %q does not name an owner and a project", repo))
	}
	return fmt.Sprintf("%s/repos/%s/check-runs/%s",
		strings.TrimRight(settings.APIURL, "/"), path, settings.CheckID), nil
}

// IsLatestVersion reports whether the commit under build is still the head
// of the built refspec. Builds without a pinned checkout are always latest.
func (r *Review) IsLatestVersion(ctx context.Context) (bool, error) {
	if r.checkoutID == "" {
		return true, nil
	}
	head, err := r.headRevision(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryReview, errors.SeverityError,
			"failed to resolve the remote head")
	}
	return head == r.checkoutID, nil
}

// ReportBuildStarted marks the check run in progress.
func (r *Review) ReportBuildStarted(ctx context.Context) error {
	return r.patch(ctx, map[string]any{
		"status":     "in_progress",
		"started_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReportBuildResult completes the check run with the build outcome.
func (r *Review) ReportBuildResult(ctx context.Context, success bool) error {
	conclusion := "failure"
	if success {
		conclusion = "success"
	}
	return r.patch(ctx, map[string]any{
		"status":       "completed",
		"conclusion":   conclusion,
		"completed_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Review) patch(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityError,
			"failed to encode check run update")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, r.checkRunURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, errors.CategoryReview, errors.SeverityError,
			"failed to build check run request")
	}
	req.Header.Set("Authorization", "token "+r.settings.Token)
	req.Header.Set("Accept", checkRunsAccept)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError,
			"failed to update check run")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.ReviewError(fmt.Sprintf("check run update rejected with status %s: %s",
			resp.Status, strings.TrimSpace(string(detail))))
	}
	return nil
}
