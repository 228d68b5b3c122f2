package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// 有効なステータスか
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// 注文。作成後はstatus以外イミュータブル。
// total_amountは作成時に確定し、以後再計算しない。
type Order struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//NX-<yyyyMMddHHmmss>-<8桁英数大文字>
	OrderNumber string `gorm:"type:varchar(40);not null;uniqueIndex" json:"order_number"`

	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//明細の小計の合計（作成時に確定）
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`

	//チェックアウト時に選んだ支払い方法（自由文字列）
	PaymentMethod string `gorm:"type:varchar(50);not null" json:"payment_method"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
