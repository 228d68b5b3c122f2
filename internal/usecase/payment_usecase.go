package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// Yape QRの有効期限
const yapeQRTTL = 15 * time.Minute

// 現在時刻の供給源。テストで固定する
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// カード決済に必要な入力（番号は保存しない）
type CardDetails struct {
	Number     string
	HolderName string
	ExpiryDate string
	CVV        string
}

// 外部決済ゲートウェイ
type CardGateway interface {
	Charge(ctx context.Context, card CardDetails, amount decimal.Decimal) (bool, error)
}

// PaymentUsecase は支払い処理。カード（即時）とYape（QR生成→確認の2段階）。
type PaymentUsecase struct {
	tx      repo.TransactionManager
	gateway CardGateway
	clock   Clock
}

func NewPaymentUsecase(tx repo.TransactionManager, gateway CardGateway, clock Clock) *PaymentUsecase {
	return &PaymentUsecase{tx: tx, gateway: gateway, clock: clock}
}

type CardPaymentInput struct {
	OrderID    int64
	Method     string
	Number     string
	HolderName string
	ExpiryDate string
	CVV        string
}

type PaymentOutput struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	PaymentCode   string          `json:"payment_code"`
	Method        string          `json:"payment_method"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	CardLastFour  string          `json:"card_last_four,omitempty"`
	CardBrand     string          `json:"card_brand,omitempty"`
	TransactionID string          `json:"transaction_id,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type PaymentMethodInfo struct {
	Method      string `json:"method"`
	DisplayName string `json:"display_name"`
	Enabled     bool   `json:"enabled"`
}

type YapeQROutput struct {
	PaymentCode string          `json:"payment_code"`
	QRCodeData  string          `json:"qr_code_data"`
	DeepLink    string          `json:"deep_link"`
	Amount      decimal.Decimal `json:"amount"`
	ExpiresAt   time.Time       `json:"expires_at"`
	ExpiresIn   int64           `json:"expires_in_seconds"`
}

// 利用可能な支払い方法
func (u *PaymentUsecase) PaymentMethods() []PaymentMethodInfo {
	return []PaymentMethodInfo{
		{Method: string(model.PaymentMethodCreditCard), DisplayName: "Credit Card", Enabled: true},
		{Method: string(model.PaymentMethodDebitCard), DisplayName: "Debit Card", Enabled: true},
		{Method: string(model.PaymentMethodYape), DisplayName: "Yape", Enabled: true},
	}
}

// カード払い。ゲートウェイ成功で注文COMPLETED＋ライブラリ付与まで同一Txで行う。
// ゲートウェイ拒否はエラーではなくFAILEDの結果として返す
func (u *PaymentUsecase) ProcessCardPayment(ctx context.Context, userID int64, isAdmin bool, in CardPaymentInput) (PaymentOutput, error) {
	if userID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.OrderID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_id")
	}

	method := model.PaymentMethod(in.Method)
	if method != model.PaymentMethodCreditCard && method != model.PaymentMethodDebitCard {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}

	card := CardDetails{
		Number:     strings.ReplaceAll(strings.TrimSpace(in.Number), " ", ""),
		HolderName: strings.TrimSpace(in.HolderName),
		ExpiryDate: strings.TrimSpace(in.ExpiryDate),
		CVV:        strings.TrimSpace(in.CVV),
	}
	if err := validateCard(card); err != nil {
		return PaymentOutput{}, err
	}

	var out PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, in.OrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID && !isAdmin {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}
		if o.Status != model.OrderStatusPending {
			return NewHTTPError(http.StatusBadRequest, "order is not pending")
		}

		if err := u.clearRetryablePayment(ctx, r, o.ID); err != nil {
			return err
		}

		now := u.clock.Now()
		p := model.Payment{
			OrderID:      o.ID,
			PaymentCode:  "PAY-" + randomCode(8),
			Method:       method,
			Status:       model.PaymentStatusProcessing,
			Amount:       o.TotalAmount,
			CardLastFour: card.Number[len(card.Number)-4:],
			CardBrand:    detectCardBrand(card.Number),
		}
		pid, err := r.Payments().Create(ctx, p)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		p.ID = pid

		approved, err := u.gateway.Charge(ctx, card, o.TotalAmount)
		if err != nil {
			return NewHTTPError(http.StatusBadGateway, "payment gateway error")
		}

		if approved {
			p.Status = model.PaymentStatusCompleted
			p.TransactionID = "TXN-" + randomCode(12)
			p.PaidAt = &now
			if err := r.Payments().Update(ctx, p); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			if err := r.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusCompleted); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			if err := grantLibraryForOrder(ctx, r, o.UserID, o.ID); err != nil {
				return err
			}
		} else {
			p.Status = model.PaymentStatusFailed
			if err := r.Payments().Update(ctx, p); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		out = toPaymentOutput(p)
		return nil
	})

	if err != nil {
		return PaymentOutput{}, err
	}
	return out, nil
}

// Yape QR生成。PENDING支払いを作り、15分有効のQRペイロードを返す
func (u *PaymentUsecase) GenerateYapeQR(ctx context.Context, userID int64, isAdmin bool, orderID int64) (YapeQROutput, error) {
	if userID <= 0 {
		return YapeQROutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return YapeQROutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_id")
	}

	var out YapeQROutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID && !isAdmin {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}
		if o.Status != model.OrderStatusPending {
			return NewHTTPError(http.StatusBadRequest, "order is not pending")
		}

		if err := u.clearRetryablePayment(ctx, r, o.ID); err != nil {
			return err
		}

		now := u.clock.Now()
		expiresAt := now.Add(yapeQRTTL)
		code := "PAY-" + randomCode(8)

		//QRペイロード: YAPE|<code>|<amount>|NEXUS_MARKETPLACE
		payload := fmt.Sprintf("YAPE|%s|%s|NEXUS_MARKETPLACE", code, o.TotalAmount.StringFixed(2))
		qrData := base64.StdEncoding.EncodeToString([]byte("QR_DATA:" + payload))

		p := model.Payment{
			OrderID:     o.ID,
			PaymentCode: code,
			Method:      model.PaymentMethodYape,
			Status:      model.PaymentStatusPending,
			Amount:      o.TotalAmount,
			QRCodeData:  qrData,
			ExpiresAt:   &expiresAt,
		}
		if _, err := r.Payments().Create(ctx, p); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = YapeQROutput{
			PaymentCode: code,
			QRCodeData:  qrData,
			DeepLink:    fmt.Sprintf("yape://pay?code=%s&amount=%s", code, o.TotalAmount.StringFixed(2)),
			Amount:      o.TotalAmount,
			ExpiresAt:   expiresAt,
			ExpiresIn:   int64(yapeQRTTL / time.Second),
		}
		return nil
	})

	if err != nil {
		return YapeQROutput{}, err
	}
	return out, nil
}

// Yape確認。期限切れはここで初めてEXPIREDへ落とす（遅延判定）。
// EXPIREDへの更新はコミットしつつ、呼び出し元にはエラーを返す
func (u *PaymentUsecase) ConfirmYapePayment(ctx context.Context, userID int64, isAdmin bool, paymentCode string) (PaymentOutput, error) {
	if userID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(paymentCode) == "" {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_code")
	}

	var out PaymentOutput
	var deferredErr error

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByPaymentCode(ctx, paymentCode)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "payment not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if p.Method != model.PaymentMethodYape {
			return NewHTTPError(http.StatusBadRequest, "not a yape payment")
		}

		o, err := r.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID && !isAdmin {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		if p.Status != model.PaymentStatusPending {
			return NewHTTPError(http.StatusBadRequest, "payment already processed")
		}

		now := u.clock.Now()
		if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
			//EXPIREDの書き込みは残したいのでnilを返してコミットし、
			//エラーは外側で返す
			p.Status = model.PaymentStatusExpired
			if err := r.Payments().Update(ctx, p); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			deferredErr = NewHTTPError(http.StatusBadRequest, "payment expired")
			return nil
		}

		p.Status = model.PaymentStatusCompleted
		p.TransactionID = "YAPE-" + randomCode(10)
		p.PaidAt = &now
		if err := r.Payments().Update(ctx, p); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusCompleted); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := grantLibraryForOrder(ctx, r, o.UserID, o.ID); err != nil {
			return err
		}

		out = toPaymentOutput(p)
		return nil
	})

	if err != nil {
		return PaymentOutput{}, err
	}
	if deferredErr != nil {
		return PaymentOutput{}, deferredErr
	}
	return out, nil
}

// 支払いコードで照会（所有者か管理者のみ）
func (u *PaymentUsecase) GetPaymentStatus(ctx context.Context, userID int64, isAdmin bool, paymentCode string) (PaymentOutput, error) {
	if userID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(paymentCode) == "" {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_code")
	}

	var out PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByPaymentCode(ctx, paymentCode)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "payment not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o, err := r.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID && !isAdmin {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		out = toPaymentOutput(p)
		return nil
	})

	if err != nil {
		return PaymentOutput{}, err
	}
	return out, nil
}

// 注文に紐づく最新の支払い
func (u *PaymentUsecase) GetPaymentByOrder(ctx context.Context, userID int64, isAdmin bool, orderID int64) (PaymentOutput, error) {
	if userID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_id")
	}

	var out PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID && !isAdmin {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		p, err := r.Payments().FindByOrderID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "payment not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toPaymentOutput(p)
		return nil
	})

	if err != nil {
		return PaymentOutput{}, err
	}
	return out, nil
}

// 再試行のための掃除。未完了（COMPLETED以外）の既存行は削除して作り直す。
// COMPLETEDが既にあれば二重払いとして拒否
func (u *PaymentUsecase) clearRetryablePayment(ctx context.Context, r repo.TxRepos, orderID int64) error {
	existing, err := r.Payments().FindByOrderID(ctx, orderID)
	if err == repo.ErrNotFound {
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if existing.Status == model.PaymentStatusCompleted {
		return NewHTTPError(http.StatusBadRequest, "order already paid")
	}
	if err := r.Payments().DeleteByID(ctx, existing.ID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 形式チェックのみ（Luhn等はゲートウェイ側の責務）
func validateCard(card CardDetails) error {
	if len(card.Number) < 13 {
		return NewHTTPError(http.StatusBadRequest, "invalid card number")
	}
	for _, c := range card.Number {
		if c < '0' || c > '9' {
			return NewHTTPError(http.StatusBadRequest, "invalid card number")
		}
	}
	if card.HolderName == "" {
		return NewHTTPError(http.StatusBadRequest, "holder name is required")
	}
	if len(card.CVV) < 3 {
		return NewHTTPError(http.StatusBadRequest, "invalid cvv")
	}
	return nil
}

// 先頭の数字でブランドを推定する
func detectCardBrand(number string) string {
	if number == "" {
		return "OTHER"
	}
	switch number[0] {
	case '4':
		return "VISA"
	case '5', '2':
		return "MASTERCARD"
	case '3':
		return "AMEX"
	default:
		return "OTHER"
	}
}

func toPaymentOutput(p model.Payment) PaymentOutput {
	return PaymentOutput{
		ID:            p.ID,
		OrderID:       p.OrderID,
		PaymentCode:   p.PaymentCode,
		Method:        string(p.Method),
		Status:        string(p.Status),
		Amount:        p.Amount,
		CardLastFour:  p.CardLastFour,
		CardBrand:     p.CardBrand,
		TransactionID: p.TransactionID,
		PaidAt:        p.PaidAt,
		CreatedAt:     p.CreatedAt,
	}
}
