package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /libraryのHTTP
type LibraryHandler struct {
	uc *usecase.LibraryUsecase
}

// DI
func NewLibraryHandler(uc *usecase.LibraryUsecase) *LibraryHandler {
	return &LibraryHandler{uc: uc}
}

type PlayRequest struct {
	Minutes int64 `json:"minutes"`
}

func (h *LibraryHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/library")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("", h.list)
	g.GET("/stats", h.stats)
	g.GET("/games/:gameId/owned", h.owned)
	g.POST("/games/:gameId/install", h.install)
	g.POST("/games/:gameId/uninstall", h.uninstall)
	g.POST("/games/:gameId/play", h.play)
}

func (h *LibraryHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.GetLibrary(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *LibraryHandler) stats(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Stats(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *LibraryHandler) owned(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	gameID, err := strconv.ParseInt(c.Param("gameId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid game id"})
	}

	owns, err := h.uc.OwnsGame(c.Request().Context(), userID, gameID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"owned": owns})
}

func (h *LibraryHandler) install(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	gameID, err := strconv.ParseInt(c.Param("gameId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid game id"})
	}

	out, err := h.uc.Install(c.Request().Context(), userID, gameID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *LibraryHandler) uninstall(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	gameID, err := strconv.ParseInt(c.Param("gameId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid game id"})
	}

	out, err := h.uc.Uninstall(c.Request().Context(), userID, gameID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *LibraryHandler) play(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	gameID, err := strconv.ParseInt(c.Param("gameId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid game id"})
	}

	var req PlayRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Play(c.Request().Context(), userID, gameID, usecase.PlayInput{Minutes: req.Minutes})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
