package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentMethodYape       PaymentMethod = "YAPE"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusCancelled  PaymentStatus = "CANCELLED"
	PaymentStatusExpired    PaymentStatus = "EXPIRED"
)

// 支払い。1注文につきアクティブな行は最大1つ。
// 再試行時は未完了の行を削除して作り直す（遷移はさせない）。
type Payment struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;index" json:"order_id"`

	//PAY-<8桁英数大文字>
	PaymentCode string `gorm:"type:varchar(100);not null;uniqueIndex" json:"payment_code"`

	Method PaymentMethod `gorm:"type:varchar(20);not null;column:payment_method" json:"payment_method"`
	Status PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//注文totalのコピー
	Amount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`

	//カード払いのみ（マスク済み）
	CardLastFour string `gorm:"type:varchar(4)" json:"card_last_four,omitempty"`
	CardBrand    string `gorm:"type:varchar(20)" json:"card_brand,omitempty"`

	//Yapeのみ
	QRCodeData string     `gorm:"type:text" json:"qr_code_data,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`

	//外部決済のトランザクションID
	TransactionID string     `gorm:"type:varchar(100)" json:"transaction_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
