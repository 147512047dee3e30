package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var mongoConn = make(map[string]*mongo.Client)
var mongoMutex sync.Mutex

// GetMongoConn 按 uri 复用客户端，连接后 ping 一次
func GetMongoConn(ctx context.Context, uri string) (*mongo.Client, error) {
	mongoMutex.Lock()
	defer mongoMutex.Unlock()
	if conn, ok := mongoConn[uri]; ok {
		return conn, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetMaxPoolSize(120))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	mongoConn[uri] = client
	return client, nil
}
