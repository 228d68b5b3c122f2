package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カート。1ユーザーにつき1つ（初回アクセス時に作成）。
// チェックアウト後は削除せず、明細クリア＋total=0に戻す。
type Cart struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;uniqueIndex" json:"user_id"`

	//明細の小計の合計。明細が変わるたびに再計算して保存する
	Total decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
