package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 購入済みゲームのライブラリ登録。
// (user_id, game_id) で一意。何度付与しても重複しない。
type LibraryEntry struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;uniqueIndex:idx_library_user_game" json:"user_id"`
	GameID int64 `gorm:"not null;uniqueIndex:idx_library_user_game" json:"game_id"`

	//購入元の注文（再購入no-op時は最初の注文のまま）
	OrderID int64 `gorm:"not null;index" json:"order_id"`

	//購入時点の価格
	PurchasePrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"purchase_price"`

	PlayTimeMinutes int64      `gorm:"not null;default:0" json:"play_time_minutes"`
	LastPlayed      *time.Time `json:"last_played,omitempty"`
	IsInstalled     bool       `gorm:"not null;default:false" json:"is_installed"`

	AcquiredAt time.Time `gorm:"not null;autoCreateTime" json:"acquired_at"`
}
