package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderUsecase は注文のライフサイクルを持つ。
// 状態遷移は PENDING → COMPLETED / PENDING → CANCELLED のみ（管理者上書きは別）。
type OrderUsecase struct {
	tx repo.TransactionManager
}

func NewOrderUsecase(tx repo.TransactionManager) *OrderUsecase {
	return &OrderUsecase{tx: tx}
}

type CheckoutInput struct {
	PaymentMethod string
}

type OrderItemOutput struct {
	ID              int64           `json:"id"`
	GameID          int64           `json:"game_id"`
	GameTitle       string          `json:"game_title"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Quantity        int64           `json:"quantity"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type OrderOutput struct {
	ID            int64             `json:"id"`
	OrderNumber   string            `json:"order_number"`
	UserID        int64             `json:"user_id"`
	Status        string            `json:"status"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	PaymentMethod string            `json:"payment_method"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// チェックアウト。カートを注文スナップショットへ変換し、在庫を確定する。
// 途中で失敗したらロールバックされるので副作用は残らない。
func (u *OrderUsecase) CreateOrderFromCart(ctx context.Context, userID int64, in CheckoutInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//カート取得
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		//まず全明細の在庫を検証。最初に不足が見つかった時点で中断
		games := make(map[int64]model.Game, len(cartItems))
		for _, ci := range cartItems {
			g, err := r.Games().FindByID(ctx, ci.GameID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest, "game not available")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !g.IsActive {
				return NewHTTPError(http.StatusBadRequest, "game not available")
			}
			if g.Stock < ci.Quantity {
				return NewHTTPError(http.StatusBadRequest, "insufficient stock: "+g.Title)
			}
			games[ci.GameID] = g
		}

		//検証が通ったら在庫を減算してスナップショットを作る。
		//減算は条件付きUPDATEなので、同時実行でもここで売り越さない
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		total := decimal.Zero

		for _, ci := range cartItems {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.GameID, ci.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "insufficient stock: "+games[ci.GameID].Title)
			}

			subtotal := ci.PriceSnapshot.Mul(decimal.NewFromInt(ci.Quantity))
			orderItems = append(orderItems, model.OrderItem{
				GameID:            ci.GameID,
				GameTitleSnapshot: games[ci.GameID].Title,
				PriceAtPurchase:   ci.PriceSnapshot,
				Quantity:          ci.Quantity,
				Subtotal:          subtotal,
			})

			total = total.Add(subtotal)
		}

		// 注文作成（totalはここで確定、以後再計算しない）
		order := model.Order{
			UserID:        userID,
			OrderNumber:   generateOrderNumber(),
			Status:        model.OrderStatusPending,
			TotalAmount:   total,
			PaymentMethod: method,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//カートは空にする（削除はしない）
		if err := r.CartItems().DeleteByCartID(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Carts().UpdateTotal(ctx, cart.ID, decimal.Zero); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order.ID = orderID
		out = toOrderOutput(order, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var out OrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs, err := attachItems(ctx, r, orders)
		if err != nil {
			return err
		}
		out = OrderListOutput{Items: outs, Total: total, Page: page, Limit: limit}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// ページングなしの全件（新しい順）
func (u *OrderUsecase) ListAllMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListAllByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs, err = attachItems(ctx, r, orders)
		return err
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetOrderDetail(ctx context.Context, userID int64, isAdmin bool, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID && !isAdmin {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) GetOrderByNumber(ctx context.Context, userID int64, isAdmin bool, orderNumber string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(orderNumber) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order number")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByOrderNumber(ctx, orderNumber)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID && !isAdmin {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// キャンセル（PENDINGのみ）。作成時に減らした数量をそのまま戻す。
// 二重キャンセルは「not pending」で拒否する（no-opにはしない）。
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID int64, isAdmin bool, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
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

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//在庫戻し
		for _, it := range items {
			if err := r.Inventory().IncreaseStock(ctx, it.GameID, it.Quantity); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = model.OrderStatusCancelled
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 手動完了（支払いをシミュレート）。PENDINGのみ。
// ライブラリ付与はしない（付与は支払い経由の完了のみ）。
func (u *OrderUsecase) CompleteOrder(ctx context.Context, userID int64, isAdmin bool, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
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

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCompleted); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = model.OrderStatusCompleted
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// NX-<yyyyMMddHHmmss>-<8桁英数大文字>
func generateOrderNumber() string {
	return "NX-" + time.Now().Format("20060102150405") + "-" + randomCode(8)
}

// UUIDからダッシュを除いた先頭n桁（大文字）
func randomCode(n int) string {
	s := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

func attachItems(ctx context.Context, r repo.TxRepos, orders []model.Order) ([]OrderOutput, error) {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return outs, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ID:              it.ID,
			GameID:          it.GameID,
			GameTitle:       it.GameTitleSnapshot,
			PriceAtPurchase: it.PriceAtPurchase,
			Quantity:        it.Quantity,
			Subtotal:        it.Subtotal,
		})
	}

	return OrderOutput{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Status:        string(o.Status),
		TotalAmount:   o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		CreatedAt:     o.CreatedAt,
		Items:         outItems,
	}
}
