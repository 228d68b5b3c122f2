package server

import (
	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Handlers はルート登録に必要なハンドラ一式
type Handlers struct {
	Auth       *handler.AuthHandler
	Game       *handler.GameHandler
	Cart       *handler.CartHandler
	Order      *handler.OrderHandler
	Payment    *handler.PaymentHandler
	Library    *handler.LibraryHandler
	AdminGame  *handler.AdminGameHandler
	AdminOrder *handler.AdminOrderHandler
}

// New はechoを組み立てて返す（起動はしない）
func New(cfg config.Config, logger *zap.Logger, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(requestLogger(logger))

	h.Auth.RegisterRoutes(e, cfg)
	h.Game.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, cfg)
	h.Order.RegisterRoutes(e, cfg)
	h.Payment.RegisterRoutes(e, cfg)
	h.Library.RegisterRoutes(e, cfg)
	h.AdminGame.RegisterRoutes(e, cfg)
	h.AdminOrder.RegisterRoutes(e, cfg)

	return e
}

// Start はサーバーを起動する
func Start(e *echo.Echo, cfg config.Config) error {
	addr := cfg.Port
	if addr == "" {
		addr = "8080"
	}
	if addr[0] != ':' {
		addr = ":" + addr
	}
	return e.Start(addr)
}

// アクセスログ（zap）
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}
