package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/pkg/constants"
)

type noopTask struct{ name string }

func (t *noopTask) Run(context.Context, map[string]any) error { return nil }
func (t *noopTask) Identifier() string                        { return t.name }

type addedJob struct {
	cron, task, unique, source string
	params                     map[string]any
}

type fakeScheduler struct{ jobs []addedJob }

func (f *fakeScheduler) AddJob(cronExpr, taskName, uniqueJobName string, params map[string]any, source string) error {
	f.jobs = append(f.jobs, addedJob{cronExpr, taskName, uniqueJobName, source, params})
	return nil
}

func TestRegisterAndGetTask(t *testing.T) {
	Register("test:noop", func() core.Task { return &noopTask{name: "test:noop"} })

	task, err := GetTask("test:noop")
	require.NoError(t, err)
	assert.Equal(t, "test:noop", task.Identifier())
	assert.Contains(t, Names(), "test:noop")

	_, err = GetTask("test:missing")
	assert.Error(t, err, "未注册的任务应该返回错误")
}

func TestApplyAutoJobs(t *testing.T) {
	params := map[string]any{"urls": "https://example.com"}
	RegisterAuto("test:auto", "@every 1h", func() core.Task { return &noopTask{name: "test:auto"} }, params)

	sched := &fakeScheduler{}
	ApplyAutoJobs(sched)

	var found *addedJob
	for i := range sched.jobs {
		if sched.jobs[i].task == "test:auto" {
			found = &sched.jobs[i]
		}
	}
	require.NotNil(t, found, "自动任务应该被加入调度器")
	assert.Equal(t, "@every 1h", found.cron)
	assert.Equal(t, "test:auto", found.unique)
	assert.Equal(t, string(constants.TaskTypeSYSTEM), found.source)
	assert.Equal(t, params, found.params)

	// 自动任务同时可以手动触发
	_, err := GetTask("test:auto")
	assert.NoError(t, err)
}
