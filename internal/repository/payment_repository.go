package repository

import (
	"context"

	"app/internal/domain/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) (int64, error)
	//注文に紐づく支払い（無ければErrNotFound）
	FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error)
	FindByPaymentCode(ctx context.Context, paymentCode string) (model.Payment, error)
	//完了/失敗などの反映。行全体を保存する
	Update(ctx context.Context, p model.Payment) error
	//再試行時に未完了の行を消す
	DeleteByID(ctx context.Context, paymentID int64) error
}
