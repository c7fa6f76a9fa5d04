package structure

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cibuilder/internal/metrics"
)

type captureRecorder struct {
	mu      sync.Mutex
	steps   []string
	results []metrics.ResultLabel
}

func (c *captureRecorder) ObserveDriverOp(string, string, time.Duration, metrics.ResultLabel) {}
func (c *captureRecorder) ObserveStepDuration(step string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, step)
}
func (c *captureRecorder) IncStepResult(_ string, result metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
}
func (c *captureRecorder) AddPollChanges(string, int) {}

func TestRunReturnsErrorUnchanged(t *testing.T) {
	rec := &captureRecorder{}
	b := New(rec)

	sentinel := errors.New("driver exploded")
	err := b.Run("Preparing repository", func() error { return sentinel })
	require.ErrorIs(t, err, sentinel)

	assert.Equal(t, []string{"Preparing repository"}, rec.steps)
	assert.Equal(t, []metrics.ResultLabel{metrics.ResultFailure}, rec.results)
}

func TestRunRecordsSuccess(t *testing.T) {
	rec := &captureRecorder{}
	b := New(rec)

	require.NoError(t, b.Run("Revert repository", func() error { return nil }))
	assert.Equal(t, []metrics.ResultLabel{metrics.ResultSuccess}, rec.results)
}

func TestNewWithNilRecorder(t *testing.T) {
	b := New(nil)
	assert.NoError(t, b.Run("noop", func() error { return nil }))
}
