// Package model 定义核心数据模型
//
// user.go 包含用户实体相关的数据模型定义：
//   - User：用户记录
//   - UserStatus：用户状态枚举
//   - UserPatch：部分更新补丁（未提供的字段保持不变）
//   - UserGroupStats：按状态分组的统计结果
package model

import (
	"time"
)

// UserStatus 用户状态枚举
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusPending  UserStatus = "pending"
)

// IsValid 判断状态是否在枚举范围内
func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusPending:
		return true
	}
	return false
}

// User 用户记录
//
// ID 和时间戳由服务端分配，客户端不可写。
// Age 可为空：为空时不参与均值统计。
type User struct {
	// ID 唯一标识，格式 user-xxxxxxxxxxxx
	ID string `json:"id" bson:"_id" db:"id"`

	// Name 用户名，必填，最长 100 字符
	Name string `json:"name" bson:"name" db:"name" validate:"required,max=100"`

	// Email 邮箱，必填，全局唯一
	Email string `json:"email" bson:"email" db:"email" validate:"required,email,max=255"`

	// Age 年龄，可空，0-150
	Age *int `json:"age,omitempty" bson:"age,omitempty" db:"age" validate:"omitempty,gte=0,lte=150"`

	// City 城市，可空
	City string `json:"city,omitempty" bson:"city,omitempty" db:"city" validate:"omitempty,max=100"`

	// Status 状态，默认 active
	Status UserStatus `json:"status" bson:"status" db:"status" validate:"required,oneof=active inactive pending"`

	// CreatedAt / UpdatedAt 由存储层维护
	CreatedAt time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// Validate 校验记录完整性，返回逐字段错误列表
// 必须在任何持久化调用之前执行
func (u *User) Validate() ValidationErrors {
	return checkStruct(u)
}

// UserPatch 部分更新补丁
//
// 指针为 nil 表示"不修改该字段"。提供的字段按与新建相同的规则校验。
type UserPatch struct {
	Name   *string     `json:"name,omitempty" validate:"omitempty,max=100"`
	Email  *string     `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Age    *int        `json:"age,omitempty" validate:"omitempty,gte=0,lte=150"`
	City   *string     `json:"city,omitempty" validate:"omitempty,max=100"`
	Status *UserStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive pending"`
}

// Validate 校验补丁中提供的字段
func (p *UserPatch) Validate() ValidationErrors {
	return checkStruct(p)
}

// Apply 将补丁合并到记录上，仅覆盖补丁中出现的字段
func (u *User) Apply(p *UserPatch) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Age != nil {
		u.Age = p.Age
	}
	if p.City != nil {
		u.City = *p.City
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
}

// UserGroupStats 按状态分组的聚合统计
//
// AvgAge 为 nil 表示该组内所有记录的 Age 均为空（空值不计入均值，不按 0 处理）。
type UserGroupStats struct {
	Status UserStatus `json:"status" bson:"_id"`
	Count  int        `json:"count" bson:"count"`
	AvgAge *float64   `json:"avg_age" bson:"avg_age"`
}
