package mongostore

import (
	"context"
	"time"

	"bloodflow/internal/shared/model"
	"bloodflow/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

func (s *Store) GetUserByID(ctx context.Context, id bson.ObjectID) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

// UpdateUserByEmail 按 email 合并更新档案字段（调用方负责剥离受保护键）
func (s *Store) UpdateUserByEmail(ctx context.Context, email string, fields map[string]any) error {
	update := setFromMap(fields)
	update = append(update, bson.E{Key: "updatedAt", Value: time.Now()})
	res, err := s.col(ColUsers).UpdateOne(ctx,
		bson.D{{Key: "email", Value: email}},
		bson.D{{Key: "$set", Value: update}})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateUserRole(ctx context.Context, id bson.ObjectID, role model.UserRole) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "role", Value: role},
		{Key: "updatedAt", Value: time.Now()},
	})
}

func (s *Store) UpdateUserStatus(ctx context.Context, id bson.ObjectID, status model.UserStatus) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "status", Value: status},
		{Key: "updatedAt", Value: time.Now()},
	})
}

// SearchUsers 按血型/地区条件检索，三个条件取交集
// 空条件不参与过滤；全部为空的防护由 handler 层负责（直接返回空列表）
func (s *Store) SearchUsers(ctx context.Context, bloodGroup, district, upazila string) ([]*model.User, error) {
	filter := bson.D{}
	if bloodGroup != "" {
		filter = append(filter, bson.E{Key: "bloodGroup", Value: bloodGroup})
	}
	if district != "" {
		filter = append(filter, bson.E{Key: "district", Value: district})
	}
	if upazila != "" {
		filter = append(filter, bson.E{Key: "upazila", Value: upazila})
	}
	return findMany[model.User](ctx, s.col(ColUsers), filter)
}

func (s *Store) ListUsers(ctx context.Context, status string, skip, limit int64) ([]*model.User, error) {
	filter := bson.D{}
	if status != "" {
		filter = append(filter, bson.E{Key: "status", Value: status})
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetSkip(skip)
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	return findMany[model.User](ctx, s.col(ColUsers), filter, opts)
}

func (s *Store) CountUsers(ctx context.Context, status string) (int64, error) {
	filter := bson.D{}
	if status != "" {
		filter = append(filter, bson.E{Key: "status", Value: status})
	}
	n, err := s.col(ColUsers).CountDocuments(ctx, filter)
	return n, wrapError(err)
}
