// Package model 商品实体相关的数据模型定义
//
// product.go 包含：
//   - Product：商品记录
//   - ProductStatus：商品状态枚举
//   - ProductPatch：部分更新补丁
//   - ProductGroupStats：按分类分组的统计结果
package model

import (
	"time"
)

// ProductStatus 商品状态枚举
type ProductStatus string

const (
	ProductStatusAvailable    ProductStatus = "available"
	ProductStatusOutOfStock   ProductStatus = "out_of_stock"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// IsValid 判断状态是否在枚举范围内
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusAvailable, ProductStatusOutOfStock, ProductStatusDiscontinued:
		return true
	}
	return false
}

// Product 商品记录
//
// Price 使用指针类型以区分"未提供"与"价格为 0"：
// required 校验只拒绝 nil，0 是合法价格。
type Product struct {
	// ID 唯一标识，格式 prod-xxxxxxxxxxxx
	ID string `json:"id" bson:"_id" db:"id"`

	// Name 商品名，必填，最长 100 字符
	Name string `json:"name" bson:"name" db:"name" validate:"required,max=100"`

	// Description 描述，可空
	Description string `json:"description,omitempty" bson:"description,omitempty" db:"description" validate:"omitempty,max=1000"`

	// Price 单价，必填，非负
	Price *float64 `json:"price" bson:"price" db:"price" validate:"required,gte=0"`

	// Quantity 库存数量，非负，默认 0
	Quantity int `json:"quantity" bson:"quantity" db:"quantity" validate:"gte=0"`

	// Category 分类，必填，用作统计分组字段
	Category string `json:"category" bson:"category" db:"category" validate:"required,max=100"`

	// Status 状态，默认 available
	Status ProductStatus `json:"status" bson:"status" db:"status" validate:"required,oneof=available out_of_stock discontinued"`

	// CreatedAt / UpdatedAt 由存储层维护
	CreatedAt time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// Validate 校验记录完整性，返回逐字段错误列表
// 必须在任何持久化调用之前执行
func (p *Product) Validate() ValidationErrors {
	return checkStruct(p)
}

// ProductPatch 部分更新补丁
type ProductPatch struct {
	Name        *string        `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string        `json:"description,omitempty" validate:"omitempty,max=1000"`
	Price       *float64       `json:"price,omitempty" validate:"omitempty,gte=0"`
	Quantity    *int           `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Category    *string        `json:"category,omitempty" validate:"omitempty,max=100"`
	Status      *ProductStatus `json:"status,omitempty" validate:"omitempty,oneof=available out_of_stock discontinued"`
}

// Validate 校验补丁中提供的字段
func (p *ProductPatch) Validate() ValidationErrors {
	return checkStruct(p)
}

// Apply 将补丁合并到记录上，仅覆盖补丁中出现的字段
func (prod *Product) Apply(p *ProductPatch) {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Description != nil {
		prod.Description = *p.Description
	}
	if p.Price != nil {
		prod.Price = p.Price
	}
	if p.Quantity != nil {
		prod.Quantity = *p.Quantity
	}
	if p.Category != nil {
		prod.Category = *p.Category
	}
	if p.Status != nil {
		prod.Status = *p.Status
	}
}

// ProductGroupStats 按分类分组的聚合统计
//
// AvgPrice 为 nil 仅在组内无有效价格时出现（正常数据不会发生，价格必填）。
type ProductGroupStats struct {
	Category      string   `json:"category" bson:"_id"`
	Count         int      `json:"count" bson:"count"`
	AvgPrice      *float64 `json:"avg_price" bson:"avg_price"`
	TotalQuantity int      `json:"total_quantity" bson:"total_quantity"`
}
