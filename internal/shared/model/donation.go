package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DonationStatus 捐血请求状态
type DonationStatus string

const (
	DonationStatusPending    DonationStatus = "pending"
	DonationStatusInProgress DonationStatus = "inprogress"
	DonationStatusDone       DonationStatus = "done"
	DonationStatusCanceled   DonationStatus = "canceled"
)

// Valid 状态是否为合法枚举值
func (s DonationStatus) Valid() bool {
	switch s {
	case DonationStatusPending, DonationStatusInProgress, DonationStatusDone, DonationStatusCanceled:
		return true
	}
	return false
}

// donationTransitions 状态机转移表
//
// pending    -> inprogress | canceled
// inprogress -> done | canceled
// done/canceled 为终态
var donationTransitions = map[DonationStatus][]DonationStatus{
	DonationStatusPending:    {DonationStatusInProgress, DonationStatusCanceled},
	DonationStatusInProgress: {DonationStatusDone, DonationStatusCanceled},
	DonationStatusDone:       {},
	DonationStatusCanceled:   {},
}

// CanTransitionTo 判断状态转移是否合法
func (s DonationStatus) CanTransitionTo(to DonationStatus) bool {
	for _, t := range donationTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Terminal 是否为终态
func (s DonationStatus) Terminal() bool {
	return len(donationTransitions[s]) == 0
}

// DonationRequest 捐血请求
//
// donorEmail/donorName 在捐献者认领请求时一并写入（二者同生共灭）。
type DonationRequest struct {
	ID                bson.ObjectID  `json:"_id,omitempty" bson:"_id,omitempty"`
	RequesterName     string         `json:"requesterName" bson:"requesterName"`
	RequesterEmail    string         `json:"requesterEmail" bson:"requesterEmail"`
	RecipientName     string         `json:"recipientName,omitempty" bson:"recipientName,omitempty"`
	RecipientDistrict string         `json:"recipientDistrict,omitempty" bson:"recipientDistrict,omitempty"`
	RecipientUpazila  string         `json:"recipientUpazila,omitempty" bson:"recipientUpazila,omitempty"`
	HospitalName      string         `json:"hospitalName,omitempty" bson:"hospitalName,omitempty"`
	FullAddress       string         `json:"fullAddress,omitempty" bson:"fullAddress,omitempty"`
	BloodGroup        string         `json:"bloodGroup,omitempty" bson:"bloodGroup,omitempty"`
	DonationDate      string         `json:"donationDate,omitempty" bson:"donationDate,omitempty"`
	DonationTime      string         `json:"donationTime,omitempty" bson:"donationTime,omitempty"`
	RequestMessage    string         `json:"requestMessage,omitempty" bson:"requestMessage,omitempty"`
	DonationStatus    DonationStatus `json:"donationStatus" bson:"donationStatus"`
	DonorEmail        *string        `json:"donorEmail,omitempty" bson:"donorEmail,omitempty"`
	DonorName         *string        `json:"donorName,omitempty" bson:"donorName,omitempty"`
	CreatedAt         time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// protectedDonationFields PATCH 时禁止修改的字段
var protectedDonationFields = map[string]bool{
	"_id":            true,
	"requesterName":  true,
	"requesterEmail": true,
	"donationStatus": true,
	"donorEmail":     true,
	"donorName":      true,
	"createdAt":      true,
}

// ProtectedDonationField 字段是否受保护（仅可经状态转移接口修改）
func ProtectedDonationField(key string) bool {
	return protectedDonationFields[key]
}
