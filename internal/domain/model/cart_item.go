package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カートの明細。
// 追加時点の価格を必ずスナップショットとして保存する。
type CartItem struct {
	ID       int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID   int64 `gorm:"not null;index" json:"cart_id"`
	GameID   int64 `gorm:"not null;index" json:"game_id"`
	Quantity int64 `gorm:"not null" json:"quantity"`

	//追加時点の価格
	PriceSnapshot decimal.Decimal `gorm:"type:decimal(10,2);not null;column:price_snapshot" json:"price_snapshot"`

	//price_snapshot × quantity
	Subtotal decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// Subtotalを数量×スナップショット価格で計算し直す
func (ci *CartItem) CalculateSubtotal() {
	ci.Subtotal = ci.PriceSnapshot.Mul(decimal.NewFromInt(ci.Quantity))
}
