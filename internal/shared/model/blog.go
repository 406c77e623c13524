package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// BlogStatus 博客发布状态
type BlogStatus string

const (
	BlogStatusDraft     BlogStatus = "draft"
	BlogStatusPublished BlogStatus = "published"
)

// Valid 状态是否为合法枚举值
func (s BlogStatus) Valid() bool {
	return s == BlogStatusDraft || s == BlogStatusPublished
}

// Blog 博客文章，新建时默认 draft
type Blog struct {
	ID          bson.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Title       string        `json:"title" bson:"title"`
	Thumbnail   string        `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	Content     string        `json:"content,omitempty" bson:"content,omitempty"`
	Status      BlogStatus    `json:"status" bson:"status"`
	AuthorEmail string        `json:"authorEmail,omitempty" bson:"authorEmail,omitempty"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updatedAt"`
}
