package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCartTx(t *testing.T) (*TxManagerMock, *CartRepoMock, *CartItemRepoMock, *GameRepoMock) {
	t.Helper()

	carts := new(CartRepoMock)
	cartItems := new(CartItemRepoMock)
	games := new(GameRepoMock)

	tx := new(TxManagerMock)
	tx.Repos = &TxReposMock{carts: carts, cartItems: cartItems, games: games}
	tx.On("WithinTx", mock.Anything).Return(nil)

	return tx, carts, cartItems, games
}

func TestCartUsecase_AddToCart_Success(t *testing.T) {
	tx, carts, cartItems, games := newCartTx(t)
	uc := usecase.NewCartUsecase(tx)

	price := decimal.NewFromInt(60)
	game := model.Game{ID: 10, Title: "Starfall", Price: price, Stock: 5, IsActive: true}

	carts.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 100, UserID: 1}, nil)
	games.On("FindByID", mock.Anything, int64(10)).Return(game, nil)

	//既存明細なし→upsert後に1件
	item := model.CartItem{ID: 1, CartID: 100, GameID: 10, Quantity: 2, PriceSnapshot: price}
	item.CalculateSubtotal()
	cartItems.On("ListByCartID", mock.Anything, int64(100)).Return([]model.CartItem{}, nil).Once()
	cartItems.On("UpsertByCartAndGame", mock.Anything, int64(100), int64(10), int64(2), price).Return(nil)
	cartItems.On("ListByCartID", mock.Anything, int64(100)).Return([]model.CartItem{item}, nil)
	carts.On("UpdateTotal", mock.Anything, int64(100), decimal.NewFromInt(120)).Return(nil)

	out, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{GameID: 10, Quantity: 2})
	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.True(t, out.Total.Equal(decimal.NewFromInt(120)))

	cartItems.AssertExpectations(t)
}

// 既存数量＋追加数量の合計で在庫超過を判定する
func TestCartUsecase_AddToCart_CombinedQuantityExceedsStock(t *testing.T) {
	tx, carts, cartItems, games := newCartTx(t)
	uc := usecase.NewCartUsecase(tx)

	price := decimal.NewFromInt(30)
	game := model.Game{ID: 10, Title: "Starfall", Price: price, Stock: 5, IsActive: true}

	carts.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 100, UserID: 1}, nil)
	games.On("FindByID", mock.Anything, int64(10)).Return(game, nil)

	//既に3個持っている。3個足すと6 > 5 で拒否
	existing := model.CartItem{ID: 1, CartID: 100, GameID: 10, Quantity: 3, PriceSnapshot: price}
	cartItems.On("ListByCartID", mock.Anything, int64(100)).Return([]model.CartItem{existing}, nil)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{GameID: 10, Quantity: 3})
	assertHTTPStatus(t, err, http.StatusBadRequest)
	assertErrContains(t, err, "insufficient stock")

	//upsertは呼ばれない
	cartItems.AssertNotCalled(t, "UpsertByCartAndGame", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_AddToCart_InactiveGame(t *testing.T) {
	tx, carts, _, games := newCartTx(t)
	uc := usecase.NewCartUsecase(tx)

	carts.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 100, UserID: 1}, nil)
	games.On("FindByID", mock.Anything, int64(10)).Return(model.Game{ID: 10, IsActive: false}, nil)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{GameID: 10, Quantity: 1})
	assertHTTPStatus(t, err, http.StatusBadRequest)
	assertErrContains(t, err, "not available")
}

func TestCartUsecase_AddToCart_GameNotFound(t *testing.T) {
	tx, carts, _, games := newCartTx(t)
	uc := usecase.NewCartUsecase(tx)

	carts.On("GetOrCreateByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 100, UserID: 1}, nil)
	games.On("FindByID", mock.Anything, int64(99)).Return(model.Game{}, repo.ErrNotFound)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{GameID: 99, Quantity: 1})
	assertHTTPStatus(t, err, http.StatusNotFound)
}

func TestCartUsecase_AddToCart_InvalidQuantity(t *testing.T) {
	tx, _, _, _ := newCartTx(t)
	uc := usecase.NewCartUsecase(tx)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{GameID: 10, Quantity: 0})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

// 他人の明細は403
func TestCartUsecase_UpdateCartItem_NotOwned(t *testing.T) {
	tx, _, cartItems, _ := newCartTx(t)
	uc := usecase.NewCartUsecase(tx)

	cartItems.On("IsOwnedByUser", mock.Anything, int64(5), int64(1)).Return(false, nil)

	_, err := uc.UpdateCartItem(context.Background(), 1, 5, usecase.UpdateCartItemInput{Quantity: 2})
	assertHTTPStatus(t, err, http.StatusForbidden)
}

// 数量0は削除扱い
func TestCartUsecase_UpdateCartItem_ZeroDeletes(t *testing.T) {
	tx, carts, cartItems, _ := newCartTx(t)
	uc := usecase.NewCartUsecase(tx)

	item := model.CartItem{ID: 5, CartID: 100, GameID: 10, Quantity: 2, PriceSnapshot: decimal.NewFromInt(30)}

	cartItems.On("IsOwnedByUser", mock.Anything, int64(5), int64(1)).Return(true, nil)
	cartItems.On("FindByID", mock.Anything, int64(5)).Return(item, nil)
	cartItems.On("DeleteByID", mock.Anything, int64(5)).Return(nil)
	cartItems.On("ListByCartID", mock.Anything, int64(100)).Return([]model.CartItem{}, nil)
	carts.On("UpdateTotal", mock.Anything, int64(100), decimal.Zero).Return(nil)

	out, err := uc.UpdateCartItem(context.Background(), 1, 5, usecase.UpdateCartItemInput{Quantity: 0})
	assert.NoError(t, err)
	assert.Empty(t, out.Items)

	cartItems.AssertCalled(t, "DeleteByID", mock.Anything, int64(5))
}

func TestCartUsecase_UpdateCartItem_ExceedsStock(t *testing.T) {
	tx, _, cartItems, games := newCartTx(t)
	uc := usecase.NewCartUsecase(tx)

	item := model.CartItem{ID: 5, CartID: 100, GameID: 10, Quantity: 2, PriceSnapshot: decimal.NewFromInt(30)}

	cartItems.On("IsOwnedByUser", mock.Anything, int64(5), int64(1)).Return(true, nil)
	cartItems.On("FindByID", mock.Anything, int64(5)).Return(item, nil)
	games.On("FindByID", mock.Anything, int64(10)).Return(model.Game{ID: 10, Stock: 3, IsActive: true}, nil)

	_, err := uc.UpdateCartItem(context.Background(), 1, 5, usecase.UpdateCartItemInput{Quantity: 4})
	assertHTTPStatus(t, err, http.StatusBadRequest)
	assertErrContains(t, err, "insufficient stock")
}

func TestCartUsecase_ClearCart(t *testing.T) {
	tx, carts, cartItems, _ := newCartTx(t)
	uc := usecase.NewCartUsecase(tx)

	carts.On("FindByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 100, UserID: 1}, nil)
	cartItems.On("DeleteByCartID", mock.Anything, int64(100)).Return(nil)
	carts.On("UpdateTotal", mock.Anything, int64(100), decimal.Zero).Return(nil)

	out, err := uc.ClearCart(context.Background(), 1)
	assert.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.True(t, out.Total.IsZero())
}
