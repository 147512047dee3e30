package db

import (
	"sync"

	"github.com/go-redis/redis/v8"
)

var redisConn = make(map[string]*redis.Client)
var redisMutex sync.Mutex

// GetRedisConn 按地址复用客户端
func GetRedisConn(addr, password string, db int) *redis.Client {
	redisMutex.Lock()
	defer redisMutex.Unlock()
	if rdb, ok := redisConn[addr]; ok {
		return rdb
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	redisConn[addr] = rdb
	return rdb
}
