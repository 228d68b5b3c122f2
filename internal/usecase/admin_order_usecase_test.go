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

func newAdminOrderTx(t *testing.T) (*TxManagerMock, *OrderRepoMock, *OrderItemRepoMock, *InventoryRepoMock, *AuditRepoMock) {
	t.Helper()

	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	inventory := new(InventoryRepoMock)
	audit := new(AuditRepoMock)

	tx := new(TxManagerMock)
	tx.Repos = &TxReposMock{orders: orders, orderItems: orderItems, inventory: inventory}
	tx.On("WithinTx", mock.Anything).Return(nil)

	return tx, orders, orderItems, inventory, audit
}

func TestAdminOrderUsecase_List_InvalidPage(t *testing.T) {
	tx, _, _, _, audit := newAdminOrderTx(t)
	uc := usecase.NewAdminOrderUsecase(tx, audit)

	_, err := uc.ListOrders(context.Background(), usecase.AdminOrderListInput{Page: 0, Limit: 20})
	assertHTTPStatus(t, err, http.StatusBadRequest)
	assertErrContains(t, err, "invalid page")
}

func TestAdminOrderUsecase_List_InvalidStatus(t *testing.T) {
	tx, _, _, _, audit := newAdminOrderTx(t)
	uc := usecase.NewAdminOrderUsecase(tx, audit)

	_, err := uc.ListOrders(context.Background(), usecase.AdminOrderListInput{Page: 1, Limit: 20, Status: "SHIPPED"})
	assertHTTPStatus(t, err, http.StatusBadRequest)
	assertErrContains(t, err, "invalid status")
}

func TestAdminOrderUsecase_List_FilterByUser(t *testing.T) {
	tx, orders, orderItems, _, audit := newAdminOrderTx(t)
	uc := usecase.NewAdminOrderUsecase(tx, audit)

	rows := []model.Order{{ID: 500, UserID: 7, Status: model.OrderStatusPending, TotalAmount: decimal.NewFromInt(10)}}

	orders.On("ListAdmin", mock.Anything, mock.MatchedBy(func(f repo.AdminOrderListFilter) bool {
		return f.UserID != nil && *f.UserID == 7 && f.Status == "PENDING"
	})).Return(rows, int64(1), nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(500)).Return([]model.OrderItem{}, nil)

	out, err := uc.ListOrders(context.Background(), usecase.AdminOrderListInput{Page: 1, Limit: 20, Status: "PENDING", UserID: 7})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Len(t, out.Items, 1)
}

// 非CANCELLED→CANCELLEDの遷移でだけ在庫を戻す
func TestAdminOrderUsecase_UpdateStatus_CancelRestoresStock(t *testing.T) {
	tx, orders, orderItems, inventory, audit := newAdminOrderTx(t)
	uc := usecase.NewAdminOrderUsecase(tx, audit)

	order := model.Order{ID: 500, UserID: 7, Status: model.OrderStatusPending}
	items := []model.OrderItem{{ID: 1, OrderID: 500, GameID: 10, Quantity: 2}}

	orders.On("FindByID", mock.Anything, int64(500)).Return(order, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(500)).Return(items, nil)
	inventory.On("IncreaseStock", mock.Anything, int64(10), int64(2)).Return(nil)
	orders.On("UpdateStatus", mock.Anything, int64(500), model.OrderStatusCancelled).Return(nil)
	audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := uc.UpdateOrderStatus(context.Background(), 99, 500, usecase.AdminUpdateOrderStatusInput{Status: "CANCELLED"})
	assert.NoError(t, err)
	assert.Equal(t, "CANCELLED", out.Status)

	inventory.AssertCalled(t, "IncreaseStock", mock.Anything, int64(10), int64(2))
	audit.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

// 既にCANCELLEDの注文へ再適用しても在庫は二重に戻らない
func TestAdminOrderUsecase_UpdateStatus_CancelledToCancelledNoRestore(t *testing.T) {
	tx, orders, orderItems, inventory, audit := newAdminOrderTx(t)
	uc := usecase.NewAdminOrderUsecase(tx, audit)

	order := model.Order{ID: 500, UserID: 7, Status: model.OrderStatusCancelled}

	orders.On("FindByID", mock.Anything, int64(500)).Return(order, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(500)).Return([]model.OrderItem{{ID: 1, GameID: 10, Quantity: 2}}, nil)
	orders.On("UpdateStatus", mock.Anything, int64(500), model.OrderStatusCancelled).Return(nil)
	audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := uc.UpdateOrderStatus(context.Background(), 99, 500, usecase.AdminUpdateOrderStatusInput{Status: "CANCELLED"})
	assert.NoError(t, err)

	inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

// COMPLETEDへの上書きでは在庫は動かない
func TestAdminOrderUsecase_UpdateStatus_CompleteDoesNotTouchStock(t *testing.T) {
	tx, orders, orderItems, inventory, audit := newAdminOrderTx(t)
	uc := usecase.NewAdminOrderUsecase(tx, audit)

	order := model.Order{ID: 500, UserID: 7, Status: model.OrderStatusPending}

	orders.On("FindByID", mock.Anything, int64(500)).Return(order, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(500)).Return([]model.OrderItem{{ID: 1, GameID: 10, Quantity: 2}}, nil)
	orders.On("UpdateStatus", mock.Anything, int64(500), model.OrderStatusCompleted).Return(nil)
	audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := uc.UpdateOrderStatus(context.Background(), 99, 500, usecase.AdminUpdateOrderStatusInput{Status: "COMPLETED"})
	assert.NoError(t, err)
	assert.Equal(t, "COMPLETED", out.Status)

	inventory.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_InvalidStatus(t *testing.T) {
	tx, _, _, _, audit := newAdminOrderTx(t)
	uc := usecase.NewAdminOrderUsecase(tx, audit)

	_, err := uc.UpdateOrderStatus(context.Background(), 99, 500, usecase.AdminUpdateOrderStatusInput{Status: "SHIPPED"})
	assertHTTPStatus(t, err, http.StatusBadRequest)
	assertErrContains(t, err, "invalid status")
}

func TestAdminOrderUsecase_UpdateStatus_NotFound(t *testing.T) {
	tx, orders, _, _, audit := newAdminOrderTx(t)
	uc := usecase.NewAdminOrderUsecase(tx, audit)

	orders.On("FindByID", mock.Anything, int64(999)).Return(model.Order{}, repo.ErrNotFound)

	_, err := uc.UpdateOrderStatus(context.Background(), 99, 999, usecase.AdminUpdateOrderStatusInput{Status: "CANCELLED"})
	assertHTTPStatus(t, err, http.StatusNotFound)
}
