package xerr

import "github.com/iceymoss/board-crawler/pkg/errors"

const (
	// 抓取相关
	UNSUPPORTED_SOURCE = 200001 // 不支持的来源站点
	TRANSIENT_FETCH    = 200002 // 超时、非 2xx、连接错误，可重试
	NORMALIZE_FAILED   = 200003 // 单篇文章字段缺失或格式错误
	CRAWL_LOCKED       = 200004 // 同一个库已有抓取在跑

	ErrInternalServer = 500 // HTTP 500

	ErrInvalidInput     = 1001 // HTTP 400
	ErrMissingParameter = 1002 // HTTP 400

	ErrNotFound = 1300 // HTTP 404
)

// 哨兵错误，配合 errors.Is 使用
var (
	ErrUnsupportedSource = errors.New(UNSUPPORTED_SOURCE, "unsupported source")
	ErrTransientFetch    = errors.New(TRANSIENT_FETCH, "transient fetch failure")
	ErrNormalize         = errors.New(NORMALIZE_FAILED, "normalize failed")
	ErrLocked            = errors.New(CRAWL_LOCKED, "crawl already running")
)
