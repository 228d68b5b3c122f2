package usecase

import (
	"context"
	"net/http"

	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジックです。
// カートは在庫を動かさない（在庫は注文確定時のみ変わる）。
type CartUsecase struct {
	tx repo.TransactionManager
}

func NewCartUsecase(tx repo.TransactionManager) *CartUsecase {
	return &CartUsecase{tx: tx}
}

type CartItemResponse struct {
	ID       int64           `json:"id"`
	GameID   int64           `json:"game_id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	GameID   int64
	Quantity int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// GetCart はカート取得（無ければ作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out, err = buildCartResponse(ctx, r, cart.ID)
		return err
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// AddToCart はカートに追加（同一ゲームは数量加算）。
// 加算後の合計数量を現在在庫と突き合わせ、足りなければ何も変更しない。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.GameID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid game_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// ゲームチェック（公開のみ）
		g, err := r.Games().FindByID(ctx, in.GameID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "game not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !g.IsActive {
			return NewHTTPError(http.StatusBadRequest, "game not available")
		}

		// 既存数量を調べる
		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		var existingQty int64 = 0
		for _, it := range items {
			if it.GameID == in.GameID {
				existingQty = it.Quantity
				break
			}
		}

		//加算後の合計で在庫チェック（差分だけではない）
		newQty := existingQty + in.Quantity
		if newQty > g.Stock {
			return NewHTTPError(http.StatusBadRequest, "insufficient stock")
		}

		// Upsert（同一ゲームは加算）
		// price_snapshot は「追加時点の価格」を渡す
		if err := r.CartItems().UpsertByCartAndGame(ctx, cart.ID, in.GameID, in.Quantity, g.Price); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := recalculateCartTotal(ctx, r, cart.ID); err != nil {
			return err
		}

		out, err = buildCartResponse(ctx, r, cart.ID)
		return err
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// 数量変更（所有チェック＋在庫チェック）。数量0は削除。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		owned, err := r.CartItems().IsOwnedByUser(ctx, cartItemID, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !owned {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		item, err := r.CartItems().FindByID(ctx, cartItemID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if in.Quantity == 0 {
			//0は削除
			if err := r.CartItems().DeleteByID(ctx, cartItemID); err != nil {
				if err == repo.ErrNotFound {
					return NewHTTPError(http.StatusNotFound, "not found")
				}
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		} else {
			//在庫チェック
			g, err := r.Games().FindByID(ctx, item.GameID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest, "game not available")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !g.IsActive {
				return NewHTTPError(http.StatusBadRequest, "game not available")
			}
			if in.Quantity > g.Stock {
				return NewHTTPError(http.StatusBadRequest, "insufficient stock")
			}

			if err := r.CartItems().UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
				if err == repo.ErrNotFound {
					return NewHTTPError(http.StatusNotFound, "not found")
				}
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := recalculateCartTotal(ctx, r, item.CartID); err != nil {
			return err
		}

		out, err = buildCartResponse(ctx, r, item.CartID)
		return err
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// 明細削除
func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		owned, err := r.CartItems().IsOwnedByUser(ctx, cartItemID, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !owned {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		item, err := r.CartItems().FindByID(ctx, cartItemID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.CartItems().DeleteByID(ctx, cartItemID); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := recalculateCartTotal(ctx, r, item.CartID); err != nil {
			return err
		}

		out, err = buildCartResponse(ctx, r, item.CartID)
		return err
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// カートを空にする（カート自体は残す）
func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "cart not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.CartItems().DeleteByCartID(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Carts().UpdateTotal(ctx, cart.ID, decimal.Zero); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = CartResponse{Items: []CartItemResponse{}, Total: decimal.Zero}
		return nil
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// 明細の小計を合計してcarts.totalへ反映する。
// 「total＝明細小計の合計」の不変条件はここで守る
func recalculateCartTotal(ctx context.Context, r repo.TxRepos, cartID int64) error {
	items, err := r.CartItems().ListByCartID(ctx, cartID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}

	if err := r.Carts().UpdateTotal(ctx, cartID, total); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// cartIDの明細をまとめてCartResponseを作る。
func buildCartResponse(ctx context.Context, r repo.TxRepos, cartID int64) (CartResponse, error) {
	items, err := r.CartItems().ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	respItems := make([]CartItemResponse, 0, len(items))
	total := decimal.Zero

	for _, it := range items {
		title := ""
		if g, err := r.Games().FindByID(ctx, it.GameID); err == nil {
			title = g.Title
		}

		respItems = append(respItems, CartItemResponse{
			ID:       it.ID,
			GameID:   it.GameID,
			Title:    title,
			Price:    it.PriceSnapshot,
			Quantity: it.Quantity,
			Subtotal: it.Subtotal,
		})

		total = total.Add(it.Subtotal)
	}

	return CartResponse{Items: respItems, Total: total}, nil
}
