package models

import (
	"context"
	"errors"
	"time"
	"unicode"

	"github.com/mmdatafocus/billing_backend/config"
	"github.com/mmdatafocus/billing_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserPin stores the bcrypt hash of a user's confirmation PIN, one row per
// user per business.
type UserPin struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"uniqueIndex:idx_user_pin;size:36;not null" json:"business_id"`
	UserId     int       `gorm:"uniqueIndex:idx_user_pin;not null" json:"user_id"`
	PinHash    string    `gorm:"size:100;not null" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func validatePinFormat(pin string) error {
	if len(pin) < 4 || len(pin) > 6 {
		return errors.New("pin must be 4 to 6 digits")
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return errors.New("pin must be 4 to 6 digits")
		}
	}
	return nil
}

// SetUserPin creates or replaces the current user's PIN.
func SetUserPin(ctx context.Context, pin string) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return errors.New("user id is required")
	}
	if err := validatePinFormat(pin); err != nil {
		return err
	}

	hash, err := utils.HashPassword(pin)
	if err != nil {
		return err
	}

	db := config.GetDB()
	record := UserPin{
		BusinessId: businessId,
		UserId:     userId,
		PinHash:    string(hash),
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "business_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"pin_hash", "updated_at"}),
	}).Create(&record).Error
}

// VerifyPin checks the supplied PIN against the stored hash. A missing PIN
// record and a wrong PIN classify to the same message so callers can't
// distinguish the two.
func VerifyPin(ctx context.Context, pin string) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return errors.New("user id is required")
	}

	db := config.GetDB()
	var record UserPin
	err := db.WithContext(ctx).
		Where("business_id = ? AND user_id = ?", businessId, userId).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ClassifyAuthError(err)
	} else if err != nil {
		return err
	}

	if err := utils.ComparePassword(record.PinHash, pin); err != nil {
		return utils.ClassifyAuthError(err)
	}
	return nil
}
