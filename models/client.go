package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/billing_backend/config"
	"github.com/mmdatafocus/billing_backend/utils"
)

type Client struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;size:36;not null" json:"business_id"`
	Name       string    `gorm:"size:200;not null" json:"name" binding:"required"`
	Address    string    `gorm:"type:text" json:"address"`
	Phone      string    `gorm:"size:50" json:"phone"`
	Email      string    `gorm:"size:200" json:"email"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewClient struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func (input *NewClient) validate() error {
	if input.Name == "" {
		return errors.New("client name is required")
	}
	if len(input.Name) > utils.MaxNameLength {
		return fmt.Errorf("client name must not exceed %d characters", utils.MaxNameLength)
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email address")
	}
	return nil
}

func CreateClient(ctx context.Context, input *NewClient) (*Client, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	client := Client{
		BusinessId: businessId,
		Name:       utils.SanitizeText(input.Name),
		Address:    utils.SanitizeText(input.Address),
		Phone:      utils.SanitizeText(input.Phone),
		Email:      input.Email,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, err
	}

	publishChange(ctx, "clients", ChangeActionCreate, client.ID)
	return &client, nil
}

func UpdateClient(ctx context.Context, id int, input *NewClient) (*Client, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	client, err := utils.FetchModel[Client](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	client.Name = utils.SanitizeText(input.Name)
	client.Address = utils.SanitizeText(input.Address)
	client.Phone = utils.SanitizeText(input.Phone)
	client.Email = input.Email

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(client).Error; err != nil {
		return nil, err
	}

	publishChange(ctx, "clients", ChangeActionUpdate, client.ID)
	return client, nil
}

// DeleteClient removes the client and detaches their documents. Documents
// keep the denormalized customer_name/email so history stays readable.
func DeleteClient(ctx context.Context, id int) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}

	client, err := utils.FetchModel[Client](ctx, businessId, id)
	if err != nil {
		return err
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	err = tx.WithContext(ctx).Model(&Document{}).
		Where("business_id = ? AND client_id = ?", businessId, id).
		Update("client_id", nil).Error
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.WithContext(ctx).Delete(client).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}

	publishChange(ctx, "clients", ChangeActionDelete, id)
	return nil
}

func GetClient(ctx context.Context, id int) (*Client, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Client](ctx, businessId, id)
}

func ListClients(ctx context.Context, search string, limit int, offset int) ([]*Client, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if limit <= 0 {
		limit = config.SearchLimit
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if search != "" {
		pattern := "%" + search + "%"
		dbCtx = dbCtx.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", pattern, pattern, pattern)
	}

	var clients []*Client
	err := dbCtx.Order("name ASC").Limit(limit).Offset(offset).Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}
