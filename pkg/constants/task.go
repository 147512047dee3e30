package constants

// TaskType 任务来源
type TaskType string

const (
	TaskTypeSYSTEM TaskType = "SYSTEM" // 代码内 RegisterAuto 注册
	TaskTypeYAML   TaskType = "YAML"   // 配置文件 jobs
	TaskTypeAPI    TaskType = "API"    // 接口触发
)

const (
	StatusIdle    = "Idle"
	StatusRunning = "Running"
	StatusError   = "Error"
)

// TimeLayout 面板展示用的时间格式
const TimeLayout = "2006-01-02 15:04:05"
