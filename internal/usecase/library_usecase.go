package usecase

import (
	"context"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// LibraryUsecase は購入済みゲームのライブラリ。
// 付与そのものは支払いTx内のgrantLibraryForOrderで行う。
type LibraryUsecase struct {
	tx repo.TransactionManager
}

func NewLibraryUsecase(tx repo.TransactionManager) *LibraryUsecase {
	return &LibraryUsecase{tx: tx}
}

type LibraryEntryOutput struct {
	ID              int64           `json:"id"`
	GameID          int64           `json:"game_id"`
	GameTitle       string          `json:"game_title"`
	OrderID         int64           `json:"order_id"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	PlayTimeMinutes int64           `json:"play_time_minutes"`
	LastPlayed      *time.Time      `json:"last_played,omitempty"`
	IsInstalled     bool            `json:"is_installed"`
	AcquiredAt      time.Time       `json:"acquired_at"`
}

type LibraryStatsOutput struct {
	TotalGames           int64           `json:"total_games"`
	InstalledGames       int64           `json:"installed_games"`
	TotalPlayTimeMinutes int64           `json:"total_play_time_minutes"`
	TotalSpent           decimal.Decimal `json:"total_spent"`
}

// 注文の全明細をライブラリへ付与する。既所有のゲームはスキップ（冪等）。
// 支払い完了と同じTxで呼ばれる前提
func grantLibraryForOrder(ctx context.Context, r repo.TxRepos, userID int64, orderID int64) error {
	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	for _, it := range items {
		exists, err := r.Library().ExistsByUserAndGame(ctx, userID, it.GameID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if exists {
			//既に持っている。上書きも数量加算もしない
			continue
		}

		if err := r.Library().Create(ctx, model.LibraryEntry{
			UserID:        userID,
			GameID:        it.GameID,
			OrderID:       orderID,
			PurchasePrice: it.PriceAtPurchase,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}
	return nil
}

// 自分のライブラリ一覧（取得日時の新しい順）
func (u *LibraryUsecase) GetLibrary(ctx context.Context, userID int64) ([]LibraryEntryOutput, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []LibraryEntryOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		entries, err := r.Library().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]LibraryEntryOutput, 0, len(entries))
		for _, e := range entries {
			title := ""
			if g, err := r.Games().FindByID(ctx, e.GameID); err == nil {
				title = g.Title
			}
			outs = append(outs, toLibraryOutput(e, title))
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return outs, nil
}

// 所有チェック
func (u *LibraryUsecase) OwnsGame(ctx context.Context, userID int64, gameID int64) (bool, error) {
	if userID <= 0 {
		return false, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if gameID <= 0 {
		return false, NewHTTPError(http.StatusBadRequest, "invalid game_id")
	}

	var owns bool

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		owns, err = r.Library().ExistsByUserAndGame(ctx, userID, gameID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return false, err
	}
	return owns, nil
}

func (u *LibraryUsecase) Install(ctx context.Context, userID int64, gameID int64) (LibraryEntryOutput, error) {
	return u.setInstalled(ctx, userID, gameID, true)
}

func (u *LibraryUsecase) Uninstall(ctx context.Context, userID int64, gameID int64) (LibraryEntryOutput, error) {
	return u.setInstalled(ctx, userID, gameID, false)
}

func (u *LibraryUsecase) setInstalled(ctx context.Context, userID int64, gameID int64, installed bool) (LibraryEntryOutput, error) {
	if userID <= 0 {
		return LibraryEntryOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if gameID <= 0 {
		return LibraryEntryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid game_id")
	}

	var out LibraryEntryOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		e, err := r.Library().FindByUserAndGame(ctx, userID, gameID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not in library")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		e.IsInstalled = installed
		if err := r.Library().Update(ctx, e); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		title := ""
		if g, err := r.Games().FindByID(ctx, e.GameID); err == nil {
			title = g.Title
		}
		out = toLibraryOutput(e, title)
		return nil
	})

	if err != nil {
		return LibraryEntryOutput{}, err
	}
	return out, nil
}

type PlayInput struct {
	Minutes int64
}

// プレイ時間を加算し、最終プレイ日時を更新する。
// インストール済み扱いにもする（プレイ＝起動済み）
func (u *LibraryUsecase) Play(ctx context.Context, userID int64, gameID int64, in PlayInput) (LibraryEntryOutput, error) {
	if userID <= 0 {
		return LibraryEntryOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if gameID <= 0 {
		return LibraryEntryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid game_id")
	}
	if in.Minutes < 1 {
		return LibraryEntryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid minutes")
	}

	var out LibraryEntryOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		e, err := r.Library().FindByUserAndGame(ctx, userID, gameID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not in library")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		now := time.Now()
		e.PlayTimeMinutes += in.Minutes
		e.LastPlayed = &now
		e.IsInstalled = true
		if err := r.Library().Update(ctx, e); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		title := ""
		if g, err := r.Games().FindByID(ctx, e.GameID); err == nil {
			title = g.Title
		}
		out = toLibraryOutput(e, title)
		return nil
	})

	if err != nil {
		return LibraryEntryOutput{}, err
	}
	return out, nil
}

// 集計（所持数/インストール数/総プレイ時間/総支出）
func (u *LibraryUsecase) Stats(ctx context.Context, userID int64) (LibraryStatsOutput, error) {
	if userID <= 0 {
		return LibraryStatsOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out LibraryStatsOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		entries, err := r.Library().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = LibraryStatsOutput{TotalSpent: decimal.Zero}
		for _, e := range entries {
			out.TotalGames++
			if e.IsInstalled {
				out.InstalledGames++
			}
			out.TotalPlayTimeMinutes += e.PlayTimeMinutes
			out.TotalSpent = out.TotalSpent.Add(e.PurchasePrice)
		}
		return nil
	})

	if err != nil {
		return LibraryStatsOutput{}, err
	}
	return out, nil
}

func toLibraryOutput(e model.LibraryEntry, title string) LibraryEntryOutput {
	return LibraryEntryOutput{
		ID:              e.ID,
		GameID:          e.GameID,
		GameTitle:       title,
		OrderID:         e.OrderID,
		PurchasePrice:   e.PurchasePrice,
		PlayTimeMinutes: e.PlayTimeMinutes,
		LastPlayed:      e.LastPlayed,
		IsInstalled:     e.IsInstalled,
		AcquiredAt:      e.AcquiredAt,
	}
}
