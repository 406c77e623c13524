// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/
//   - 初始化时通过依赖注入传入实现
//
// Get* 系列对缺失文档返回 (nil, nil)，由 handler 决定是否映射为 404。
package storage

import (
	"context"

	"bloodflow/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id bson.ObjectID) (*model.User, error)
	UpdateUserByEmail(ctx context.Context, email string, fields map[string]any) error
	UpdateUserRole(ctx context.Context, id bson.ObjectID, role model.UserRole) error
	UpdateUserStatus(ctx context.Context, id bson.ObjectID, status model.UserStatus) error
	SearchUsers(ctx context.Context, bloodGroup, district, upazila string) ([]*model.User, error)
	ListUsers(ctx context.Context, status string, skip, limit int64) ([]*model.User, error)
	CountUsers(ctx context.Context, status string) (int64, error)
}

// DonationStore 捐血请求存储接口
type DonationStore interface {
	CreateDonationRequest(ctx context.Context, req *model.DonationRequest) error
	GetDonationRequest(ctx context.Context, id bson.ObjectID) (*model.DonationRequest, error)
	ListDonationRequests(ctx context.Context, status string, skip, limit int64) ([]*model.DonationRequest, error)
	ListDonationRequestsByRequester(ctx context.Context, email, status string, skip, limit int64) ([]*model.DonationRequest, error)
	CountDonationRequests(ctx context.Context, status string) (int64, error)
	CountDonationRequestsByRequester(ctx context.Context, email, status string) (int64, error)
	UpdateDonationStatus(ctx context.Context, id bson.ObjectID, status model.DonationStatus, donorEmail, donorName *string) error
	UpdateDonationFields(ctx context.Context, id bson.ObjectID, fields map[string]any) error
	DeleteDonationRequest(ctx context.Context, id bson.ObjectID) error
}

// FundStore 资助记录存储接口
type FundStore interface {
	CreateFund(ctx context.Context, fund *model.Fund) error
	ListFunds(ctx context.Context, skip, limit int64) ([]*model.Fund, error)
	// CountFunds 使用估算计数（EstimatedDocumentCount），允许近似值
	CountFunds(ctx context.Context) (int64, error)
	TotalFunding(ctx context.Context) (float64, error)
}

// BlogStore 博客存储接口
type BlogStore interface {
	CreateBlog(ctx context.Context, blog *model.Blog) error
	GetBlog(ctx context.Context, id bson.ObjectID) (*model.Blog, error)
	ListBlogs(ctx context.Context, status string) ([]*model.Blog, error)
	UpdateBlogStatus(ctx context.Context, id bson.ObjectID, status model.BlogStatus) error
	DeleteBlog(ctx context.Context, id bson.ObjectID) error
}

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	DonationStore
	FundStore
	BlogStore
	Close() error
}
