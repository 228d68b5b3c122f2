package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/gamesのHTTP（管理者のみ）
type AdminGameHandler struct {
	uc *usecase.GameUsecase
}

// DI
func NewAdminGameHandler(uc *usecase.GameUsecase) *AdminGameHandler {
	return &AdminGameHandler{uc: uc}
}

type AdminSetStockRequest struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

func (h *AdminGameHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin/games")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminRoleGuard())

	g.PATCH("/:id/stock", h.setStock)
}

// 在庫の直接設定（調整履歴と監査ログが残る）
func (h *AdminGameHandler) setStock(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	gameID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req AdminSetStockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.AdminSetStock(c.Request().Context(), adminID, gameID, usecase.AdminSetStockInput{
		NewStock: req.Stock,
		Reason:   req.Reason,
	}); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "stock updated"})
}
