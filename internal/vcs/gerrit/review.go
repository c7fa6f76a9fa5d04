package gerrit

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/cibuilder/internal/errors"
)

// changeRefRe matches gerrit change refs of the form
// refs/changes/CC/CHANGE/PATCHSET, where CC is the last two digits of the
// change number.
var changeRefRe = regexp.MustCompile(`^refs/changes/\d{2}/(\d+)/(\d+)$`)

// changeRef identifies one patch set of one gerrit change.
type changeRef struct {
	change   int
	patchset int
}

// parseChangeRef extracts the change and patch set numbers from a gerrit
// change ref.
func parseChangeRef(refspec string) (changeRef, error) {
	m := changeRefRe.FindStringSubmatch(refspec)
	if m == nil {
		return changeRef{}, errors.ConfigError(fmt.Sprintf(
			"gerrit requires vcs.git.refspec to be a change ref of the form refs/changes/CC/CHANGE/PATCHSET, got %q",
			refspec))
	}
	change, _ := strconv.Atoi(m[1])
	patchset, _ := strconv.Atoi(m[2])
	return changeRef{change: change, patchset: patchset}, nil
}

// Review reports build progress to a gerrit change and checks whether the
// built patch set is still the current one.
type Review struct {
	ref changeRef
	run runFunc
}

// IsLatestVersion queries the change and compares its current patch set
// against the one under build.
func (r *Review) IsLatestVersion(ctx context.Context) (bool, error) {
	out, err := r.run(ctx, "query", "--format=JSON", "--current-patch-set",
		fmt.Sprintf("change:%d", r.ref.change))
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryReview, errors.SeverityError, "failed to query gerrit change")
	}
	current, err := currentPatchSet(out)
	if err != nil {
		return false, err
	}
	return current == r.ref.patchset, nil
}

// ReportBuildStarted posts a notification comment on the patch set.
func (r *Review) ReportBuildStarted(ctx context.Context) error {
	return r.review(ctx, "--message", quote("Build started."))
}

// ReportBuildResult votes Verified on the patch set according to the build
// outcome.
func (r *Review) ReportBuildResult(ctx context.Context, success bool) error {
	if success {
		return r.review(ctx, "--verified", "+1", "--message", quote("Build succeeded."))
	}
	return r.review(ctx, "--verified", "-1", "--message", quote("Build failed."))
}

func (r *Review) review(ctx context.Context, args ...string) error {
	full := append([]string{"review", fmt.Sprintf("%d,%d", r.ref.change, r.ref.patchset)}, args...)
	if _, err := r.run(ctx, full...); err != nil {
		return errors.Wrap(err, errors.CategoryReview, errors.SeverityError, "failed to post gerrit review")
	}
	return nil
}

// quote protects the message from the remote shell gerrit runs ssh commands
// through.
func quote(message string) string {
	return `"` + message + `"`
}

// currentPatchSet extracts the current patch set number from gerrit query
// JSON output. The output is one JSON object per line, the last line being
// query statistics.
func currentPatchSet(out string) (int, error) {
	type queryLine struct {
		CurrentPatchSet struct {
			Number string `json:"number"`
		} `json:"currentPatchSet"`
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var parsed queryLine
		if err := json.Unmarshal([]byte(line), &parsed); err != nil {
			continue
		}
		if parsed.CurrentPatchSet.Number == "" {
			continue
		}
		number, err := strconv.Atoi(parsed.CurrentPatchSet.Number)
		if err != nil {
			return 0, errors.ReviewError(
				fmt.Sprintf("unexpected patch set number %q in gerrit query output", parsed.CurrentPatchSet.Number))
		}
		return number, nil
	}
	return 0, errors.ReviewError("gerrit query returned no change with a current patch set")
}
