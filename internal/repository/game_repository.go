package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type GameListQuery struct {
	Page  int
	Limit int
	Q     string
	Sort  string
}

// ゲームカタログの永続化（保存・取得）だけを約束。
type GameRepository interface {
	ListActive(ctx context.Context, q GameListQuery) ([]model.Game, int64, error)
	FindByID(ctx context.Context, id int64) (model.Game, error)

	Create(ctx context.Context, g model.Game) (model.Game, error)
	Update(ctx context.Context, g model.Game) error
	SoftDelete(ctx context.Context, id int64) error
}
