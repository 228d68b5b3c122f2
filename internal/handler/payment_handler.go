package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /paymentsのHTTP
type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

// DI
func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type CardPaymentRequest struct {
	OrderID       int64  `json:"order_id"`
	PaymentMethod string `json:"payment_method"`
	CardNumber    string `json:"card_number"`
	HolderName    string `json:"holder_name"`
	ExpiryDate    string `json:"expiry_date"`
	CVV           string `json:"cvv"`
}

type YapeQRRequest struct {
	OrderID int64 `json:"order_id"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/payments")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("/card", h.processCard)
	g.POST("/yape/qr", h.generateYapeQR)
	g.POST("/yape/:paymentCode/confirm", h.confirmYape)
	g.GET("/methods", h.methods)
	g.GET("/:paymentCode", h.status)
	g.GET("/order/:orderId", h.byOrder)
}

func (h *PaymentHandler) methods(c echo.Context) error {
	return c.JSON(http.StatusOK, h.uc.PaymentMethods())
}

func (h *PaymentHandler) processCard(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CardPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.ProcessCardPayment(c.Request().Context(), userID, isAdminFromContext(c), usecase.CardPaymentInput{
		OrderID:    req.OrderID,
		Method:     req.PaymentMethod,
		Number:     req.CardNumber,
		HolderName: req.HolderName,
		ExpiryDate: req.ExpiryDate,
		CVV:        req.CVV,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) generateYapeQR(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req YapeQRRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.GenerateYapeQR(c.Request().Context(), userID, isAdminFromContext(c), req.OrderID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) confirmYape(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ConfirmYapePayment(c.Request().Context(), userID, isAdminFromContext(c), c.Param("paymentCode"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) status(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.GetPaymentStatus(c.Request().Context(), userID, isAdminFromContext(c), c.Param("paymentCode"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) byOrder(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order id"})
	}

	out, err := h.uc.GetPaymentByOrder(c.Request().Context(), userID, isAdminFromContext(c), orderID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
