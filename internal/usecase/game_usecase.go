package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// /games の業務ロジック。カタログ閲覧＋管理者の在庫設定。
type GameUsecase struct {
	gameRepo      repo.GameRepository
	inventoryRepo repo.InventoryRepository
	auditRepo     repo.AuditLogRepository
}

// DI
func NewGameUsecase(
	gameRepo repo.GameRepository,
	inventoryRepo repo.InventoryRepository,
	auditRepo repo.AuditLogRepository,
) *GameUsecase {
	return &GameUsecase{
		gameRepo:      gameRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
	}
}

type ListGamesInput struct {
	Page  int
	Limit int
	Q     string
	Sort  string
}

type GameListOutput struct {
	Items []model.Game `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// 公開中のゲーム一覧
func (u *GameUsecase) ListActiveGames(ctx context.Context, in ListGamesInput) (GameListOutput, error) {
	if in.Page < 1 {
		return GameListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return GameListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return GameListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}

	items, total, err := u.gameRepo.ListActive(ctx, repo.GameListQuery{
		Page:  in.Page,
		Limit: in.Limit,
		Q:     in.Q,
		Sort:  in.Sort,
	})
	if err != nil {
		return GameListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return GameListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// ゲーム詳細（非公開は存在しない扱い）
func (u *GameUsecase) GetGameDetail(ctx context.Context, gameID int64) (model.Game, error) {
	if gameID <= 0 {
		return model.Game{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	g, err := u.gameRepo.FindByID(ctx, gameID)
	if err == repo.ErrNotFound {
		return model.Game{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Game{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !g.IsActive {
		return model.Game{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	return g, nil
}

type AdminSetStockInput struct {
	NewStock int64
	Reason   string
}

// 在庫設定（管理者）。調整履歴と監査ログを残す
func (u *GameUsecase) AdminSetStock(ctx context.Context, actorAdminUserID int64, gameID int64, in AdminSetStockInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if gameID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.NewStock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return NewHTTPError(http.StatusBadRequest, "reason is required")
	}

	g, err := u.gameRepo.FindByID(ctx, gameID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.inventoryRepo.SetStock(ctx, gameID, in.NewStock); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//調整履歴
	if err := u.inventoryRepo.CreateAdjustment(ctx, model.InventoryAdjustment{
		GameID:      gameID,
		AdminUserID: actorAdminUserID,
		Delta:       in.NewStock - g.Stock,
		Reason:      reason,
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//監査ログ（UPDATE_STOCK）
	beforeJSON := `{"stock":` + strconv.FormatInt(g.Stock, 10) + `}`
	afterJSON := `{"stock":` + strconv.FormatInt(in.NewStock, 10) + `}`
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorAdminUserID,
		Action:       model.AuditActionUpdateStock,
		ResourceType: model.AuditResourceGame,
		ResourceID:   gameID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    time.Now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return nil
}
