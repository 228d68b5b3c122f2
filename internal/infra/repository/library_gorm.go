package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type LibraryGormRepository struct {
	db *gorm.DB
}

func NewLibraryGormRepository(db *gorm.DB) *LibraryGormRepository {
	return &LibraryGormRepository{db: db}
}

func (r *LibraryGormRepository) ExistsByUserAndGame(ctx context.Context, userID int64, gameID int64) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.LibraryEntry{}).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Count(&count).Error

	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *LibraryGormRepository) FindByUserAndGame(ctx context.Context, userID int64, gameID int64) (model.LibraryEntry, error) {
	var entry model.LibraryEntry

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		First(&entry).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.LibraryEntry{}, repo.ErrNotFound
	}
	if err != nil {
		return model.LibraryEntry{}, err
	}
	return entry, nil
}

func (r *LibraryGormRepository) Create(ctx context.Context, entry model.LibraryEntry) error {
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}
	return nil
}

func (r *LibraryGormRepository) Update(ctx context.Context, entry model.LibraryEntry) error {
	if entry.ID <= 0 {
		return repo.ErrNotFound
	}
	if err := r.db.WithContext(ctx).Save(&entry).Error; err != nil {
		return err
	}
	return nil
}

func (r *LibraryGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.LibraryEntry, error) {
	var entries []model.LibraryEntry

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("acquired_at desc").
		Find(&entries).Error
	if err != nil {
		return []model.LibraryEntry{}, err
	}
	return entries, nil
}
