package repository

import (
	"context"

	"app/internal/domain/model"
)

type LibraryRepository interface {
	ExistsByUserAndGame(ctx context.Context, userID int64, gameID int64) (bool, error)
	FindByUserAndGame(ctx context.Context, userID int64, gameID int64) (model.LibraryEntry, error)
	Create(ctx context.Context, entry model.LibraryEntry) error
	Update(ctx context.Context, entry model.LibraryEntry) error
	//取得日時の新しい順
	ListByUserID(ctx context.Context, userID int64) ([]model.LibraryEntry, error)
}
