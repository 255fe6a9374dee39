package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/billing_backend/config"
	"github.com/mmdatafocus/billing_backend/utils"
)

// Business is the tenant root; every other row carries its id.
type Business struct {
	ID            string    `gorm:"primary_key;size:36" json:"id"`
	Name          string    `gorm:"size:200;not null" json:"name" binding:"required"`
	Email         string    `gorm:"size:200" json:"email"`
	Phone         string    `gorm:"size:50" json:"phone"`
	Address       string    `gorm:"type:text" json:"address"`
	LogoObjectKey string    `gorm:"size:255" json:"logo_object_key"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CreateBusiness registers a tenant and seeds its default settings in the
// same transaction.
func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {
	if input.Name == "" {
		return nil, errors.New("business name is required")
	}
	if len(input.Name) > utils.MaxNameLength {
		return nil, fmt.Errorf("business name must not exceed %d characters", utils.MaxNameLength)
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, errors.New("invalid email address")
	}

	business := Business{
		ID:      uuid.NewString(),
		Name:    utils.SanitizeText(input.Name),
		Email:   input.Email,
		Phone:   utils.SanitizeText(input.Phone),
		Address: utils.SanitizeText(input.Address),
	}
	settings := DefaultSettings(business.ID)

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.WithContext(ctx).Create(&business).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Create(&settings).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &business, nil
}

func GetBusinessById(ctx context.Context, businessId string) (*Business, error) {
	db := config.GetDB()
	var business Business
	err := db.WithContext(ctx).Where("id = ?", businessId).First(&business).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &business, nil
}

// UpdateBusinessLogo swaps the stored logo object key and removes the old
// object best-effort.
func UpdateBusinessLogo(ctx context.Context, objectKey string) (*Business, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	business, err := GetBusinessById(ctx, businessId)
	if err != nil {
		return nil, err
	}

	oldKey := business.LogoObjectKey
	business.LogoObjectKey = objectKey

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(business).Error; err != nil {
		return nil, err
	}

	if oldKey != "" && oldKey != objectKey {
		if err := utils.DeleteObjectFromGCS(ctx, oldKey); err != nil {
			config.LogError(config.GetLogger(), "models", "UpdateBusinessLogo", "delete old logo", oldKey, err)
		}
	}

	publishChange(ctx, "businesses", ChangeActionUpdate, 0)
	return business, nil
}
