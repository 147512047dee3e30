package conf

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/iceymoss/board-crawler/pkg/pacing"
)

type Config struct {
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Server    ServerConfig    `mapstructure:"server"`
	Sensitive SensitiveConfig `mapstructure:"sensitive"`
	Jobs      []JobConfig     `mapstructure:"jobs"`
}

// CrawlerConfig 抓取相关
type CrawlerConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"` // <= 0 不限速
	MaxAttempts       int           `mapstructure:"max_attempts"`
	StopWordsFile     string        `mapstructure:"stop_words_file"` // 空则只用内置停用词
	Pacing            pacing.Config `mapstructure:"pacing"`
}

// StoreConfig 文章库
type StoreConfig struct {
	Dialect  string `mapstructure:"dialect"` // sqlite / mysql / postgres
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"` // silent / error / warn / info
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"` // 为空时使用进程内锁
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"` // 为空时不做镜像
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type SensitiveConfig struct {
	Enable   bool   `mapstructure:"enable"`
	DictPath string `mapstructure:"dict_path"`
}

type JobConfig struct {
	ID     string                 `mapstructure:"id"` // 同一任务配置多次时用来区分，空则取 Name
	Name   string                 `mapstructure:"name"`
	Cron   string                 `mapstructure:"cron"`
	Enable bool                   `mapstructure:"enable"`
	Params map[string]interface{} `mapstructure:"params"`
}

func setDefaults(v *viper.Viper) {
	p := pacing.DefaultConfig()

	v.SetDefault("crawler.timeout", 15*time.Second)
	v.SetDefault("crawler.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("crawler.requests_per_second", 0)
	v.SetDefault("crawler.max_attempts", 3)
	v.SetDefault("crawler.stop_words_file", "")
	v.SetDefault("crawler.pacing.item_delay.min", p.ItemDelay.Min)
	v.SetDefault("crawler.pacing.item_delay.max", p.ItemDelay.Max)
	v.SetDefault("crawler.pacing.page_delay.min", p.PageDelay.Min)
	v.SetDefault("crawler.pacing.page_delay.max", p.PageDelay.Max)
	v.SetDefault("crawler.pacing.backoff.min", p.Backoff.Min)
	v.SetDefault("crawler.pacing.backoff.max", p.Backoff.Max)

	v.SetDefault("store.dialect", "sqlite")
	v.SetDefault("store.dsn", "articles.db")
	v.SetDefault("store.log_level", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "board_crawler")
	v.SetDefault("mongo.collection", "articles")

	v.SetDefault("server.port", ":8080")

	v.SetDefault("sensitive.enable", false)
	v.SetDefault("sensitive.dict_path", "resources/sensitive")
}

// Default 不读文件时的配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return &c
}

// LoadConfig 加载配置
// path 为空时只使用默认值和环境变量
func LoadConfig(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // 自动读取环境变量, 如 CRAWLER_STORE_DSN

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		// 允许环境变量替换 YAML 中的 ${VAR}
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	// 显式展开环境变量
	for _, key := range v.AllKeys() {
		val := v.Get(key)
		if s, ok := val.(string); ok && strings.Contains(s, "${") {
			v.Set(key, os.ExpandEnv(s))
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// JobName 调度器里的唯一名字
func (j JobConfig) JobName() string {
	if j.ID != "" {
		return j.ID
	}
	return j.Name
}

// Job 按唯一名字查找任务配置
func (c *Config) Job(name string) (JobConfig, bool) {
	for _, j := range c.Jobs {
		if j.JobName() == name {
			return j, true
		}
	}
	return JobConfig{}, false
}
