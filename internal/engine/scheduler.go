package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iceymoss/board-crawler/internal/core"
	"github.com/iceymoss/board-crawler/internal/tasks"
	"github.com/iceymoss/board-crawler/pkg/constants"
	"github.com/iceymoss/board-crawler/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 单次任务的超时，包含抓取过程中的随机等待
const jobTimeout = 65 * time.Minute

type registeredJob struct {
	task    core.Task
	params  map[string]any
	entryID cron.EntryID
}

type Scheduler struct {
	cron       *cron.Cron
	Stats      *StatManager
	mu         sync.RWMutex
	registered map[string]registeredJob
	timeout    time.Duration
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		Stats:      NewStatManager(),
		registered: make(map[string]registeredJob),
		timeout:    jobTimeout,
	}
}

// AddJob 添加任务
func (s *Scheduler) AddJob(cronExpr, taskName, uniqueJobName string, params map[string]any, source string) error {
	// 1. 获取任务实现
	taskInstance, err := tasks.GetTask(taskName)
	if err != nil {
		return err
	}

	// 2. 加入 Cron
	entryID, err := s.cron.AddFunc(cronExpr, func() {
		s.runTaskWithStats(uniqueJobName, taskInstance, params)
	})
	if err != nil {
		return fmt.Errorf("add job %s: %w", uniqueJobName, err)
	}

	// 3. 初始化状态
	next := s.cron.Entry(entryID).Next
	s.Stats.Set(uniqueJobName, &JobStats{
		Name:        uniqueJobName,
		Task:        taskName,
		CronExpr:    cronExpr,
		Status:      constants.StatusIdle,
		LastResult:  "Pending",
		Source:      source,
		rawNext:     next,
		NextRunTime: formatTime(next),
	})

	// 保存引用以便手动触发
	s.mu.Lock()
	s.registered[uniqueJobName] = registeredJob{task: taskInstance, params: params, entryID: entryID}
	s.mu.Unlock()
	return nil
}

// runTaskWithStats 执行并记录状态
func (s *Scheduler) runTaskWithStats(name string, task core.Task, params map[string]any) {
	// 更新开始状态
	s.Stats.Update(name, func(st *JobStats) {
		st.Status = constants.StatusRunning
		st.LastRunTime = time.Now().Format(constants.TimeLayout)
		st.RunCount++
	})

	logger.Info("🚀 [Schedule] Starting job", zap.String("job", name))

	// 执行 (带超时控制)
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout) // 考虑到有休眠，时间给长一点
	defer cancel()

	err := safeRun(ctx, task, params)

	var output any
	if r, ok := task.(core.Reporter); ok {
		output = r.LastResult()
	}

	// 更新结束状态
	s.Stats.Update(name, func(st *JobStats) {
		st.LastOutput = output
		if err != nil {
			st.LastResult = fmt.Sprintf("Error: %v", err)
			st.Status = constants.StatusError
		} else {
			st.LastResult = "Success"
			st.Status = constants.StatusIdle
		}
		if next := s.nextRun(name); !next.IsZero() {
			st.rawNext = next
			st.NextRunTime = formatTime(next)
		}
	})

	if err != nil {
		logger.Error("❌ [Schedule] Job failed", zap.String("job", name), zap.Error(err))
	} else {
		logger.Info("✅ [Schedule] Job finished", zap.String("job", name))
	}
}

// safeRun 任务 panic 不影响调度器
func safeRun(ctx context.Context, task core.Task, params map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panic: %v", task.Identifier(), r)
		}
	}()
	return task.Run(ctx, params)
}

func (s *Scheduler) nextRun(name string) time.Time {
	s.mu.RLock()
	reg, ok := s.registered[name]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(reg.entryID).Next
}

// ManualRun 手动触发
func (s *Scheduler) ManualRun(uniqueJobName string) error {
	s.mu.RLock()
	reg, ok := s.registered[uniqueJobName]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job not found")
	}
	go s.runTaskWithStats(uniqueJobName, reg.task, reg.params)
	return nil
}

// RunNow 同步执行一次，给命令行和测试用
func (s *Scheduler) RunNow(uniqueJobName string) error {
	s.mu.RLock()
	reg, ok := s.registered[uniqueJobName]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job not found")
	}
	s.runTaskWithStats(uniqueJobName, reg.task, reg.params)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(constants.TimeLayout)
}
