package repo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iceymoss/board-crawler/internal/core"
)

// Mirror 把入库的文章同步一份到 MongoDB，按 (title, url, source) upsert
type Mirror struct {
	coll *mongo.Collection
}

func NewMirror(coll *mongo.Collection) *Mirror {
	return &Mirror{coll: coll}
}

// NewMirrorFromClient 使用 database.collection
func NewMirrorFromClient(client *mongo.Client, database, collection string) *Mirror {
	return NewMirror(client.Database(database).Collection(collection))
}

// UpsertBatch 返回新插入的文档数；已存在的文档不修改
func (m *Mirror) UpsertBatch(ctx context.Context, articles []core.Article) (int64, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, 0, len(articles))
	for _, a := range articles {
		filter := bson.D{
			{Key: "title", Value: a.Title},
			{Key: "url", Value: a.URL},
			{Key: "source", Value: a.Source},
		}
		update := bson.D{{Key: "$setOnInsert", Value: bson.D{
			{Key: "title", Value: a.Title},
			{Key: "url", Value: a.URL},
			{Key: "source", Value: a.Source},
			{Key: "publish_time", Value: a.PublishTime},
			{Key: "author", Value: a.Author},
			{Key: "content", Value: a.Content},
		}}}
		models = append(models, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update).SetUpsert(true))
	}

	res, err := m.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("mongo bulk upsert: %w", err)
	}
	return res.UpsertedCount, nil
}
