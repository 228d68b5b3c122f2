package repository

import (
	"context"
	"errors"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type GameGormRepository struct {
	db *gorm.DB
}

func NewGameGormRepository(db *gorm.DB) *GameGormRepository {
	return &GameGormRepository{db: db}
}

// 公開中（is_active=true）のゲーム一覧
func (r *GameGormRepository) ListActive(ctx context.Context, q repo.GameListQuery) ([]model.Game, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.Game{}).Where("is_active = ?", true)

	if s := strings.TrimSpace(q.Q); s != "" {
		base = base.Where("title ILIKE ?", "%"+s+"%")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return []model.Game{}, 0, err
	}

	order := "id desc"
	switch q.Sort {
	case "price_asc":
		order = "price asc"
	case "price_desc":
		order = "price desc"
	case "title":
		order = "title asc"
	}

	var games []model.Game
	offset := (q.Page - 1) * q.Limit
	err := base.
		Order(order).
		Limit(q.Limit).
		Offset(offset).
		Find(&games).Error
	if err != nil {
		return []model.Game{}, 0, err
	}

	return games, total, nil
}

func (r *GameGormRepository) FindByID(ctx context.Context, id int64) (model.Game, error) {
	var g model.Game
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Game{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Game{}, err
	}
	return g, nil
}

func (r *GameGormRepository) Create(ctx context.Context, g model.Game) (model.Game, error) {
	if err := r.db.WithContext(ctx).Create(&g).Error; err != nil {
		return model.Game{}, err
	}
	return g, nil
}

func (r *GameGormRepository) Update(ctx context.Context, g model.Game) error {
	res := r.db.WithContext(ctx).Model(&model.Game{}).
		Where("id = ?", g.ID).
		Updates(map[string]interface{}{
			"title":       g.Title,
			"description": g.Description,
			"price":       g.Price,
			"is_active":   g.IsActive,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *GameGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Game{}, id)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
