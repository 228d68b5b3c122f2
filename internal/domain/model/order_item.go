package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。購入時点のゲーム情報のスナップショット。
type OrderItem struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;index" json:"order_id"`
	GameID  int64 `gorm:"not null;index" json:"game_id"`

	GameTitleSnapshot string `gorm:"type:varchar(255);not null" json:"game_title_snapshot"`

	//購入時点の価格（イミュータブル）
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_at_purchase"`

	Quantity int64 `gorm:"not null" json:"quantity"`

	//price_at_purchase × quantity
	Subtotal decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
