package hooks

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

type recordingObserver struct {
	started   []string
	completed []string
	failed    []string
}

func (o *recordingObserver) OnStepStart(_ Phase, step string) {
	o.started = append(o.started, step)
}

func (o *recordingObserver) OnStepComplete(_ Phase, step string, _ time.Duration, err error) {
	o.completed = append(o.completed, step)
	if err != nil {
		o.failed = append(o.failed, step)
	}
}

type countingRecorder struct {
	metrics.NoopRecorder
	results map[string]metrics.ResultLabel
}

func (r *countingRecorder) IncStepResult(_, step string, result metrics.ResultLabel) {
	r.results[step] = result
}

func recordStep(name string, log *[]string, err error) Step {
	return FuncStep{StepName: name, Fn: func(context.Context) error {
		*log = append(*log, name)
		return err
	}}
}

func TestExecutor_RunsInOrder(t *testing.T) {
	var ran []string
	obs := &recordingObserver{}
	steps := []Step{
		recordStep("favicons", &ran, nil),
		recordStep("permalinks", &ran, nil),
		recordStep("pagination", &ran, nil),
	}

	err := NewExecutor().WithObserver(obs).Run(t.Context(), PhaseBefore, steps)
	require.NoError(t, err)
	assert.Equal(t, []string{"favicons", "permalinks", "pagination"}, ran)
	assert.Equal(t, ran, obs.started)
	assert.Equal(t, ran, obs.completed)
	assert.Empty(t, obs.failed)
}

func TestExecutor_StopsAtFirstFailure(t *testing.T) {
	var ran []string
	boom := stderrors.New("boom")
	rec := &countingRecorder{results: map[string]metrics.ResultLabel{}}
	steps := []Step{
		recordStep("one", &ran, nil),
		recordStep("two", &ran, boom),
		recordStep("three", &ran, nil),
	}

	err := NewExecutor().WithRecorder(rec).Run(t.Context(), PhaseBefore, steps)
	require.Error(t, err)
	assert.Equal(t, []string{"one", "two"}, ran)

	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, PhaseBefore, se.Phase)
	assert.Equal(t, "two", se.Step)
	assert.ErrorIs(t, err, boom)
	assert.True(t, errors.HasCategory(err, errors.CategoryHook))

	assert.Equal(t, metrics.ResultSuccess, rec.results["one"])
	assert.Equal(t, metrics.ResultFailed, rec.results["two"])
	assert.NotContains(t, rec.results, "three")
}

func TestExecutor_CanceledContext(t *testing.T) {
	var ran []string
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := NewExecutor().Run(ctx, PhaseAfter, []Step{recordStep("css", &ran, nil)})
	require.Error(t, err)
	assert.Empty(t, ran)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecutor_NoSteps(t *testing.T) {
	assert.NoError(t, NewExecutor().Run(t.Context(), PhaseAfter, nil))
}

func TestCommandStep(t *testing.T) {
	dir := t.TempDir()
	step := &CommandStep{
		StepName: "write",
		Command:  `printf '%s' "$GREETING" > out.txt`,
		Dir:      dir,
		Env:      map[string]string{"GREETING": "hello"},
	}
	require.NoError(t, step.Run(t.Context()))

	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestCommandStep_FailureIncludesStderr(t *testing.T) {
	step := &CommandStep{StepName: "fail", Command: "echo broken >&2; exit 3", Dir: t.TempDir()}
	err := step.Run(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestFromConfig(t *testing.T) {
	base := t.TempDir()
	steps := FromConfig([]config.HookConfig{
		{Name: "a", Run: "true"},
		{Name: "b", Run: "true", Dir: "sub"},
		{Name: "c", Run: "true", Dir: "/abs"},
	}, base)

	require.Len(t, steps, 3)
	assert.Equal(t, base, steps[0].(*CommandStep).Dir)
	assert.Equal(t, filepath.Join(base, "sub"), steps[1].(*CommandStep).Dir)
	assert.Equal(t, "/abs", steps[2].(*CommandStep).Dir)
	assert.Equal(t, "b", steps[1].Name())
}

func TestLogWriter_SplitsLinesAndKeepsTail(t *testing.T) {
	w := newLogWriter("s", "stderr")
	_, _ = w.Write([]byte("one\ntw"))
	_, _ = w.Write([]byte("o\nthree"))
	w.Flush()
	assert.Equal(t, "one; two; three", w.Tail())

	for range 10 {
		_, _ = w.Write([]byte("x\n"))
	}
	assert.Equal(t, "x; x; x; x; x", w.Tail())
}
