package mongostore

import (
	"context"
	"time"

	"bloodflow/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// DonationStore
// ============================================================================

func (s *Store) CreateDonationRequest(ctx context.Context, req *model.DonationRequest) error {
	if req.ID.IsZero() {
		req.ID = bson.NewObjectID()
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	return insertOne(ctx, s.col(ColDonationRequests), req)
}

func (s *Store) GetDonationRequest(ctx context.Context, id bson.ObjectID) (*model.DonationRequest, error) {
	return findOne[model.DonationRequest](ctx, s.col(ColDonationRequests), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListDonationRequests(ctx context.Context, status string, skip, limit int64) ([]*model.DonationRequest, error) {
	filter := bson.D{}
	if status != "" {
		filter = append(filter, bson.E{Key: "donationStatus", Value: status})
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetSkip(skip)
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	return findMany[model.DonationRequest](ctx, s.col(ColDonationRequests), filter, opts)
}

func (s *Store) ListDonationRequestsByRequester(ctx context.Context, email, status string, skip, limit int64) ([]*model.DonationRequest, error) {
	filter := bson.D{{Key: "requesterEmail", Value: email}}
	if status != "" {
		filter = append(filter, bson.E{Key: "donationStatus", Value: status})
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetSkip(skip)
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	return findMany[model.DonationRequest](ctx, s.col(ColDonationRequests), filter, opts)
}

func (s *Store) CountDonationRequests(ctx context.Context, status string) (int64, error) {
	filter := bson.D{}
	if status != "" {
		filter = append(filter, bson.E{Key: "donationStatus", Value: status})
	}
	n, err := s.col(ColDonationRequests).CountDocuments(ctx, filter)
	return n, wrapError(err)
}

func (s *Store) CountDonationRequestsByRequester(ctx context.Context, email, status string) (int64, error) {
	filter := bson.D{{Key: "requesterEmail", Value: email}}
	if status != "" {
		filter = append(filter, bson.E{Key: "donationStatus", Value: status})
	}
	n, err := s.col(ColDonationRequests).CountDocuments(ctx, filter)
	return n, wrapError(err)
}

// UpdateDonationStatus 更新状态，donorEmail/donorName 仅在认领时一并写入
// 转移合法性由 handler 先行校验，这里只做落库
func (s *Store) UpdateDonationStatus(ctx context.Context, id bson.ObjectID, status model.DonationStatus, donorEmail, donorName *string) error {
	update := bson.D{
		{Key: "donationStatus", Value: status},
		{Key: "updatedAt", Value: time.Now()},
	}
	if donorEmail != nil {
		update = append(update, bson.E{Key: "donorEmail", Value: *donorEmail})
	}
	if donorName != nil {
		update = append(update, bson.E{Key: "donorName", Value: *donorName})
	}
	return updateFields(ctx, s.col(ColDonationRequests), id, update)
}

// UpdateDonationFields 合并更新普通字段（调用方负责剥离受保护键）
func (s *Store) UpdateDonationFields(ctx context.Context, id bson.ObjectID, fields map[string]any) error {
	update := setFromMap(fields)
	update = append(update, bson.E{Key: "updatedAt", Value: time.Now()})
	return updateFields(ctx, s.col(ColDonationRequests), id, update)
}

func (s *Store) DeleteDonationRequest(ctx context.Context, id bson.ObjectID) error {
	return deleteByID(ctx, s.col(ColDonationRequests), id)
}
