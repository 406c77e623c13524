package mongostore

import (
	"context"
	"time"

	"bloodflow/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// BlogStore
// ============================================================================

func (s *Store) CreateBlog(ctx context.Context, blog *model.Blog) error {
	if blog.ID.IsZero() {
		blog.ID = bson.NewObjectID()
	}
	now := time.Now()
	blog.CreatedAt = now
	blog.UpdatedAt = now
	return insertOne(ctx, s.col(ColBlogs), blog)
}

func (s *Store) GetBlog(ctx context.Context, id bson.ObjectID) (*model.Blog, error) {
	return findOne[model.Blog](ctx, s.col(ColBlogs), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListBlogs(ctx context.Context, status string) ([]*model.Blog, error) {
	filter := bson.D{}
	if status != "" {
		filter = append(filter, bson.E{Key: "status", Value: status})
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findMany[model.Blog](ctx, s.col(ColBlogs), filter, opts)
}

func (s *Store) UpdateBlogStatus(ctx context.Context, id bson.ObjectID, status model.BlogStatus) error {
	return updateFields(ctx, s.col(ColBlogs), id, bson.D{
		{Key: "status", Value: status},
		{Key: "updatedAt", Value: time.Now()},
	})
}

func (s *Store) DeleteBlog(ctx context.Context, id bson.ObjectID) error {
	return deleteByID(ctx, s.col(ColBlogs), id)
}
