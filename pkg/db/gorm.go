package db

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/iceymoss/board-crawler/pkg/logger"
)

const (
	DialectSQLite   = "sqlite"
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"

	// DefaultSQLiteDSN 未配置时的本地库文件
	DefaultSQLiteDSN = "articles.db"
)

// Config 文章库连接配置
type Config struct {
	Dialect  string
	DSN      string
	LogLevel string           // silent / error / warn / info / debug
	NowFunc  func() time.Time // 写入 created_at 时使用的时钟，统一存 UTC
}

var gormConn = make(map[string]*gorm.DB)
var gormMutex sync.Mutex

// GetConn 按 dialect+dsn 复用连接
func GetConn(cfg Config) (*gorm.DB, error) {
	key := strings.ToLower(cfg.Dialect) + "|" + cfg.DSN
	gormMutex.Lock()
	defer gormMutex.Unlock()
	if conn, ok := gormConn[key]; ok {
		return conn, nil
	}
	conn, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	gormConn[key] = conn
	return conn, nil
}

// Open 打开一个新的连接，不做缓存
func Open(cfg Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	now := cfg.NowFunc
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	gcfg := &gorm.Config{
		Logger:  NewGormLogger(gormLogLevel(cfg.LogLevel)),
		NowFunc: func() time.Time { return now().UTC() },
	}

	conn, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Dialect, err)
	}

	pool, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if isSQLite(cfg.Dialect) {
		// sqlite 单写，:memory: 时多个连接会看到不同的库
		pool.SetMaxOpenConns(1)
	} else {
		pool.SetMaxOpenConns(30)
		pool.SetMaxIdleConns(15)
	}
	return conn, nil
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	dsn := cfg.DSN
	switch strings.ToLower(cfg.Dialect) {
	case "", DialectSQLite, "sqlite3":
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
		return sqlite.Open(dsn), nil
	case DialectMySQL:
		return mysql.Open(dsn), nil
	case DialectPostgres, "postgresql", "pg":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported store dialect: %s", cfg.Dialect)
	}
}

func isSQLite(dialect string) bool {
	switch strings.ToLower(dialect) {
	case "", DialectSQLite, "sqlite3":
		return true
	}
	return false
}

// Sqlx 在 gorm 的连接池上包一层 sqlx，给只读的聚合查询用
func Sqlx(conn *gorm.DB) (*sqlx.DB, error) {
	pool, err := conn.DB()
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(pool, sqlxDriverName(conn.Dialector.Name())), nil
}

// sqlxDriverName sqlx 只用驱动名决定占位符风格
func sqlxDriverName(gormDialect string) string {
	switch gormDialect {
	case "postgres":
		return "pgx"
	case "mysql":
		return "mysql"
	default:
		return "sqlite3"
	}
}

func gormLogLevel(level string) gormLogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormLogger.Silent
	case "error", "fatal", "panic", "dpanic":
		return gormLogger.Error
	case "warn", "warning", "":
		return gormLogger.Warn
	case "info", "debug":
		return gormLogger.Info
	default:
		logger.Warn("unknown gorm log level, fallback to warn")
		return gormLogger.Warn
	}
}
