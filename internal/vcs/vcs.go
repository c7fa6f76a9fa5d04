// Package vcs defines the driver contract every version control backend
// implements. The contract is split into capability sets: polling for new
// changes, submitting changes on behalf of a review, and the main
// checkout/revert cycle. Concrete backends live in subpackages; the factory
// and role wrappers live in internal/lifecycle.
package vcs

import (
	"context"
	"errors"
	"time"
)

// Role names the purpose a driver serves within one build.
type Role string

const (
	RolePoll   Role = "poll"
	RoleSubmit Role = "submit"
	RoleMain   Role = "main"
)

// ErrReviewUnsupported is returned by CodeReview for backends without a code
// review integration.
var ErrReviewUnsupported = errors.New("this VCS type does not support code review integration")

// Change identifies one point in history on the polled refspec.
type Change struct {
	// ID is the backend-specific revision token (commit hash, changelist
	// number).
	ID string `json:"id"`
	// Message is the change description when the backend provides one.
	Message string `json:"message,omitempty"`
	// When is the change timestamp when the backend provides one.
	When time.Time `json:"when,omitempty"`
}

// PollDriver detects new changes on the configured source.
type PollDriver interface {
	// DetectChanges returns changes newer than since (exclusive), oldest
	// first. An empty since yields only the current head.
	DetectChanges(ctx context.Context, since string) ([]Change, error)
	// Finalize releases backend resources. Idempotent.
	Finalize() error
}

// SubmitDriver submits local modifications as a new remote change.
type SubmitDriver interface {
	// Submit records all local modifications under the working directory as
	// one change with the given description and returns its remote revision
	// identifier.
	Submit(ctx context.Context, description string) (string, error)
	// Finalize releases backend resources. Idempotent.
	Finalize() error
}

// CodeReview is the capability for checking whether the change under test is
// still the most recent one submitted for review.
type CodeReview interface {
	IsLatestVersion(ctx context.Context) (bool, error)
}

// ReviewReporter is implemented by review handles that can also report build
// progress back to the review system.
type ReviewReporter interface {
	ReportBuildStarted(ctx context.Context) error
	ReportBuildResult(ctx context.Context, success bool) error
}

// MainDriver is the checkout/revert capability required by every backend,
// including the no-VCS local directory one.
type MainDriver interface {
	// PrepareRepository materializes the configured revision into the
	// working directory. Safe to call once per build.
	PrepareRepository(ctx context.Context) error
	// WorkingDir is the directory holding the prepared sources. For the
	// local directory backend this is the user-owned source directory, not
	// a build-owned checkout.
	WorkingDir() string
	// RepoStatus returns a human-readable revision/branch/changelist summary.
	RepoStatus() (string, error)
	// CalculateFileDiff diffs the working tree against the prior known-good
	// reference.
	CalculateFileDiff() (FileDiff, error)
	// CopyCLFilesAndRevert reverts local modifications back to the reference
	// state and returns what was reverted. Backends without pending-change
	// semantics perform a plain revert and return an empty diff.
	CopyCLFilesAndRevert() (FileDiff, error)
	// Finalize releases backend resources (credentials, temp clients).
	// Idempotent.
	Finalize() error
	// CodeReview returns the review handle, or ErrReviewUnsupported.
	CodeReview() (CodeReview, error)
}
