// Package pipeline executes the expanded build steps inside the prepared
// working directory, capturing per-step logs and collecting declared
// artifacts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/cibuilder/internal/artifacts"
	"git.home.luguber.info/inful/cibuilder/internal/logfields"
	"git.home.luguber.info/inful/cibuilder/internal/metrics"
	"git.home.luguber.info/inful/cibuilder/internal/steps"
	"git.home.luguber.info/inful/cibuilder/internal/structure"
)

// StepResult records the outcome of one executed step.
type StepResult struct {
	Name    string
	Err     error
	Skipped bool
}

// Runner executes build steps sequentially in the working directory.
type Runner struct {
	workDir   string
	blocks    *structure.Blocks
	artifacts *artifacts.Collector
}

// NewRunner creates a step runner for workDir. collector may be nil to
// disable log and artifact collection.
func NewRunner(workDir string, collector *artifacts.Collector, recorder metrics.Recorder) *Runner {
	return &Runner{
		workDir:   workDir,
		blocks:    structure.New(recorder),
		artifacts: collector,
	}
}

// Run executes every step in order. A failing critical step skips all
// remaining steps; a failing non-critical step is recorded and execution
// continues. The returned error is non-nil when any executed step failed.
func (r *Runner) Run(ctx context.Context, buildSteps []steps.Step) ([]StepResult, error) {
	results := make([]StepResult, 0, len(buildSteps))
	var failed int
	skipRemaining := false

	for _, step := range buildSteps {
		if skipRemaining {
			slog.Warn("Step skipped after critical failure", logfields.Step(step.Name))
			results = append(results, StepResult{Name: step.Name, Skipped: true})
			continue
		}

		err := r.blocks.Run(step.Name, func() error {
			return r.runStep(ctx, step)
		})
		results = append(results, StepResult{Name: step.Name, Err: err})
		if err != nil {
			failed++
			if step.Critical {
				skipRemaining = true
			}
		}
	}

	if failed > 0 {
		return results, fmt.Errorf("%d of %d steps failed", failed, len(buildSteps))
	}
	return results, nil
}

func (r *Runner) runStep(ctx context.Context, step steps.Step) error {
	if len(step.Command) == 0 {
		return fmt.Errorf("step %q has no command", step.Name)
	}

	cmd := exec.CommandContext(ctx, step.Command[0], step.Command[1:]...)
	cmd.Dir = filepath.Join(r.workDir, step.Directory)
	cmd.Env = os.Environ()
	for key, value := range step.Environment {
		cmd.Env = append(cmd.Env, key+"="+value)
	}

	output, runErr := cmd.CombinedOutput()
	r.saveLog(step.Name, output)

	if step.Artifacts != "" {
		r.collectArtifacts(step)
	}

	if runErr != nil {
		return fmt.Errorf("%s failed: %w: %s",
			strings.Join(step.Command, " "), runErr, strings.TrimSpace(string(output)))
	}
	return nil
}

func (r *Runner) saveLog(stepName string, output []byte) {
	if r.artifacts == nil || len(output) == 0 {
		return
	}
	name := logName(stepName)
	if err := r.artifacts.SaveText(name, string(output)); err != nil {
		slog.Warn("Failed to save step log",
			logfields.Step(stepName),
			logfields.Error(err))
	}
}

// collectArtifacts copies the step's declared artifacts. Collection is best
// effort: a missing artifact is logged, not fatal, since the step itself
// already reported its own outcome.
func (r *Runner) collectArtifacts(step steps.Step) {
	if r.artifacts == nil {
		return
	}
	pattern := filepath.Join(r.workDir, step.Artifacts)
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		slog.Warn("No artifacts matched",
			logfields.Step(step.Name),
			logfields.Path(step.Artifacts))
		return
	}
	for _, match := range matches {
		if err := r.artifacts.CollectFile(match); err != nil {
			slog.Warn("Failed to collect artifact",
				logfields.Step(step.Name),
				logfields.Path(match),
				logfields.Error(err))
		}
	}
}

// logName derives the step log artifact name from the step name.
func logName(stepName string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, stepName)
	return name + "_log.txt"
}
