package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserRole 用户角色
type UserRole string

const (
	UserRoleDonor     UserRole = "donor"
	UserRoleVolunteer UserRole = "volunteer"
	UserRoleAdmin     UserRole = "admin"
)

// Valid 角色是否为合法枚举值
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleDonor, UserRoleVolunteer, UserRoleAdmin:
		return true
	}
	return false
}

// UserStatus 用户状态
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

// Valid 状态是否为合法枚举值
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusBlocked:
		return true
	}
	return false
}

// User 用户档案
//
// 文档字段沿用线上集合的 camelCase 键名（bloodGroup/district/upazila），
// 注册时默认 role=donor、status=active。
type User struct {
	ID           bson.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Email        string        `json:"email" bson:"email"`
	Name         string        `json:"name,omitempty" bson:"name,omitempty"`
	Avatar       string        `json:"avatar,omitempty" bson:"avatar,omitempty"`
	BloodGroup   string        `json:"bloodGroup,omitempty" bson:"bloodGroup,omitempty"`
	District     string        `json:"district,omitempty" bson:"district,omitempty"`
	Upazila      string        `json:"upazila,omitempty" bson:"upazila,omitempty"`
	PasswordHash string        `json:"-" bson:"passwordHash,omitempty"` // 永不序列化到 JSON
	Role         UserRole      `json:"role" bson:"role"`
	Status       UserStatus    `json:"status" bson:"status"`
	CreatedAt    time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// IsActive 账号是否处于可用状态
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// CanModerate 是否具备内容管理权限（volunteer 及以上）
func (u *User) CanModerate() bool {
	return u.Role == UserRoleVolunteer || u.Role == UserRoleAdmin
}
