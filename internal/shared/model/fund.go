package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Fund 资助记录
//
// fundAmount 以浮点存储，汇总时经 $toDouble 聚合（历史文档可能存了字符串）。
type Fund struct {
	ID         bson.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name       string        `json:"name,omitempty" bson:"name,omitempty"`
	Email      string        `json:"email,omitempty" bson:"email,omitempty"`
	FundAmount float64       `json:"fundAmount" bson:"fundAmount"`
	CreatedAt  time.Time     `json:"createdAt" bson:"createdAt"`
}
