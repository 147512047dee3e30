package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/internal/tasks"
	"github.com/iceymoss/board-crawler/pkg/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTask struct {
	err    error
	panics bool
	seen   map[string]any
}

func (f *fakeTask) Identifier() string { return "test:fake" }

func (f *fakeTask) Run(_ context.Context, params map[string]any) error {
	if f.panics {
		panic("boom")
	}
	f.seen = params
	return f.err
}

func (f *fakeTask) LastResult() any { return core.SaveResult{New: 2, Duplicate: 1} }

func register(t *testing.T, name string, task core.Task) {
	t.Helper()
	tasks.Register(name, func() core.Task { return task })
}

func TestSchedulerRunNow(t *testing.T) {
	task := &fakeTask{}
	register(t, "test:ok", task)

	s := NewScheduler()
	require.NoError(t, s.AddJob("0 0 * * * *", "test:ok", "ok-job", map[string]any{"board": "Gossiping"}, string(constants.TaskTypeYAML)))

	st, ok := s.Stats.Get("ok-job")
	require.True(t, ok)
	assert.Equal(t, constants.StatusIdle, st.Status)
	assert.Equal(t, "test:ok", st.Task)

	require.NoError(t, s.RunNow("ok-job"))

	st, _ = s.Stats.Get("ok-job")
	assert.Equal(t, "Success", st.LastResult)
	assert.Equal(t, int64(1), st.RunCount)
	assert.Equal(t, core.SaveResult{New: 2, Duplicate: 1}, st.LastOutput)
	assert.NotEmpty(t, st.LastRunTime)
	assert.Equal(t, "Gossiping", task.seen["board"])
}

func TestSchedulerRecordsFailure(t *testing.T) {
	register(t, "test:fail", &fakeTask{err: errors.New("upstream down")})
	register(t, "test:panic", &fakeTask{panics: true})

	s := NewScheduler()
	require.NoError(t, s.AddJob("0 0 * * * *", "test:fail", "fail-job", nil, string(constants.TaskTypeYAML)))
	require.NoError(t, s.AddJob("0 0 * * * *", "test:panic", "panic-job", nil, string(constants.TaskTypeYAML)))

	require.NoError(t, s.RunNow("fail-job"))
	require.NoError(t, s.RunNow("panic-job"))

	st, _ := s.Stats.Get("fail-job")
	assert.Equal(t, constants.StatusError, st.Status)
	assert.Contains(t, st.LastResult, "upstream down")

	st, _ = s.Stats.Get("panic-job")
	assert.Equal(t, constants.StatusError, st.Status)
	assert.Contains(t, st.LastResult, "panic")
}

func TestSchedulerRejectsUnknown(t *testing.T) {
	s := NewScheduler()

	assert.Error(t, s.AddJob("0 0 * * * *", "test:missing", "x", nil, ""))

	register(t, "test:cron", &fakeTask{})
	assert.Error(t, s.AddJob("not a cron", "test:cron", "bad-cron", nil, ""))

	assert.Error(t, s.ManualRun("nope"))
	assert.Empty(t, s.Stats.GetAll())
}
