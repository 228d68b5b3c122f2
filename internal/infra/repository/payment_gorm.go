package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) Create(ctx context.Context, p model.Payment) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (r *PaymentGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id desc").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Payment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

func (r *PaymentGormRepository) FindByPaymentCode(ctx context.Context, paymentCode string) (model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).
		Where("payment_code = ?", paymentCode).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Payment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

// 行全体を保存（ステータス・transaction_id・paid_atなどの反映用）
func (r *PaymentGormRepository) Update(ctx context.Context, p model.Payment) error {
	if p.ID <= 0 {
		return repo.ErrNotFound
	}
	if err := r.db.WithContext(ctx).Save(&p).Error; err != nil {
		return err
	}
	return nil
}

func (r *PaymentGormRepository) DeleteByID(ctx context.Context, paymentID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Payment{}, paymentID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
