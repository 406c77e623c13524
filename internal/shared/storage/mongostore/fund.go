package mongostore

import (
	"context"
	"time"

	"bloodflow/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// FundStore
// ============================================================================

func (s *Store) CreateFund(ctx context.Context, fund *model.Fund) error {
	if fund.ID.IsZero() {
		fund.ID = bson.NewObjectID()
	}
	fund.CreatedAt = time.Now()
	return insertOne(ctx, s.col(ColFunds), fund)
}

func (s *Store) ListFunds(ctx context.Context, skip, limit int64) ([]*model.Fund, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetSkip(skip)
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	return findMany[model.Fund](ctx, s.col(ColFunds), bson.D{}, opts)
}

// CountFunds 估算计数，走 collection 元数据而非全表扫描
func (s *Store) CountFunds(ctx context.Context) (int64, error) {
	n, err := s.col(ColFunds).EstimatedDocumentCount(ctx)
	return n, wrapError(err)
}

// TotalFunding 聚合汇总全部资助金额
// $toDouble 兼容历史文档中以字符串存储的金额；空集合返回 0
func (s *Store) TotalFunding(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{
				{Key: "$sum", Value: bson.D{{Key: "$toDouble", Value: "$fundAmount"}}},
			}},
		}}},
	}

	cursor, err := s.col(ColFunds).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, wrapError(err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total float64 `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, err
		}
	}
	if err := cursor.Err(); err != nil {
		return 0, err
	}
	return result.Total, nil
}
