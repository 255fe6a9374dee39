package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/billing_backend/config"
	"github.com/mmdatafocus/billing_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Settings is the single effective configuration record per business.
// It is lazily created with defaults on first access and cached in redis;
// consumers treat it as read-mostly state refreshed on auth-state change.
type Settings struct {
	ID                    int             `gorm:"primary_key" json:"id"`
	BusinessId            string          `gorm:"uniqueIndex;size:36;not null" json:"business_id"`
	CurrencyCode          string          `gorm:"size:10;not null" json:"currency_code"`
	CurrencySymbol        string          `gorm:"size:10;not null" json:"currency_symbol"`
	TaxName               string          `gorm:"size:50;not null" json:"tax_name"`
	DefaultTaxRate        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"default_tax_rate"`
	TaxEnabled            *bool           `gorm:"not null;default:true" json:"tax_enabled"`
	InvoicePrefix         string          `gorm:"size:20;not null" json:"invoice_prefix"`
	BillPrefix            string          `gorm:"size:20;not null" json:"bill_prefix"`
	DefaultPaymentTerms   int             `gorm:"not null;default:30" json:"default_payment_terms"`
	ItemsPerPage          int             `gorm:"not null;default:10" json:"items_per_page"`
	DateFormat            string          `gorm:"size:20;not null" json:"date_format"`
	NotifyLowStock        *bool           `gorm:"not null;default:true" json:"notify_low_stock"`
	NotifyDocumentCreated *bool           `gorm:"not null;default:true" json:"notify_document_created"`
	ShowProfitOnDashboard *bool           `gorm:"not null;default:true" json:"show_profit_on_dashboard"`
	CreatedAt             time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// UpdateSettingsInput carries a partial update; nil fields keep their
// current value (last-write-wins, no field-level conflict detection).
type UpdateSettingsInput struct {
	CurrencyCode          *string          `json:"currency_code"`
	CurrencySymbol        *string          `json:"currency_symbol"`
	TaxName               *string          `json:"tax_name"`
	DefaultTaxRate        *decimal.Decimal `json:"default_tax_rate"`
	TaxEnabled            *bool            `json:"tax_enabled"`
	InvoicePrefix         *string          `json:"invoice_prefix"`
	BillPrefix            *string          `json:"bill_prefix"`
	DefaultPaymentTerms   *int             `json:"default_payment_terms"`
	ItemsPerPage          *int             `json:"items_per_page"`
	DateFormat            *string          `json:"date_format"`
	NotifyLowStock        *bool            `json:"notify_low_stock"`
	NotifyDocumentCreated *bool            `json:"notify_document_created"`
	ShowProfitOnDashboard *bool            `json:"show_profit_on_dashboard"`
}

// DefaultSettings returns the fixed default set used when a business has no
// stored record yet: INR with 18% GST, INV-/BILL- prefixes, 30-day terms.
func DefaultSettings(businessId string) Settings {
	return Settings{
		BusinessId:            businessId,
		CurrencyCode:          "INR",
		CurrencySymbol:        "₹",
		TaxName:               "GST",
		DefaultTaxRate:        decimal.NewFromInt(18),
		TaxEnabled:            utils.NewTrue(),
		InvoicePrefix:         "INV-",
		BillPrefix:            "BILL-",
		DefaultPaymentTerms:   30,
		ItemsPerPage:          10,
		DateFormat:            "DD/MM/YYYY",
		NotifyLowStock:        utils.NewTrue(),
		NotifyDocumentCreated: utils.NewTrue(),
		ShowProfitOnDashboard: utils.NewTrue(),
	}
}

// EffectiveTaxRate is the percentage applied to document subtotals:
// the configured default when tax is enabled, zero otherwise.
func (s *Settings) EffectiveTaxRate() decimal.Decimal {
	if s == nil || !utils.DereferencePtr(s.TaxEnabled) {
		return decimal.Zero
	}
	return s.DefaultTaxRate
}

// DocumentPrefix selects the numbering prefix for a document type.
func (s *Settings) DocumentPrefix(docType DocumentType) string {
	if docType == DocumentTypeBill {
		return s.BillPrefix
	}
	return s.InvoicePrefix
}

func settingsCacheKey(businessId string) string {
	return businessId + "-settings"
}

// GetSettings resolves the effective settings for the business in context,
// creating the default record on first access.
func GetSettings(ctx context.Context) (*Settings, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var cached Settings
	if found, err := config.GetRedisObject(settingsCacheKey(businessId), &cached); err == nil && found {
		return &cached, nil
	}

	db := config.GetDB()
	var settings Settings
	err := db.WithContext(ctx).Where("business_id = ?", businessId).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = DefaultSettings(businessId)
		if err := db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if err := config.SetRedisObject(settingsCacheKey(businessId), &settings, time.Hour); err != nil {
		config.LogError(config.GetLogger(), "models", "GetSettings", "cache settings", businessId, err)
	}
	return &settings, nil
}

// UpdateSettings merges the partial input into the stored record
// (creating it first when absent) and invalidates the cache.
func UpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*Settings, error) {
	settings, err := GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	if input.CurrencyCode != nil {
		settings.CurrencyCode = *input.CurrencyCode
	}
	if input.CurrencySymbol != nil {
		settings.CurrencySymbol = *input.CurrencySymbol
	}
	if input.TaxName != nil {
		settings.TaxName = *input.TaxName
	}
	if input.DefaultTaxRate != nil {
		if input.DefaultTaxRate.IsNegative() {
			return nil, errors.New("default tax rate must not be negative")
		}
		settings.DefaultTaxRate = *input.DefaultTaxRate
	}
	if input.TaxEnabled != nil {
		settings.TaxEnabled = input.TaxEnabled
	}
	if input.InvoicePrefix != nil {
		settings.InvoicePrefix = *input.InvoicePrefix
	}
	if input.BillPrefix != nil {
		settings.BillPrefix = *input.BillPrefix
	}
	if input.DefaultPaymentTerms != nil {
		settings.DefaultPaymentTerms = *input.DefaultPaymentTerms
	}
	if input.ItemsPerPage != nil {
		settings.ItemsPerPage = *input.ItemsPerPage
	}
	if input.DateFormat != nil {
		settings.DateFormat = *input.DateFormat
	}
	if input.NotifyLowStock != nil {
		settings.NotifyLowStock = input.NotifyLowStock
	}
	if input.NotifyDocumentCreated != nil {
		settings.NotifyDocumentCreated = input.NotifyDocumentCreated
	}
	if input.ShowProfitOnDashboard != nil {
		settings.ShowProfitOnDashboard = input.ShowProfitOnDashboard
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, err
	}
	if err := config.RemoveRedisKey(settingsCacheKey(settings.BusinessId)); err != nil {
		config.LogError(config.GetLogger(), "models", "UpdateSettings", "invalidate cache", settings.BusinessId, err)
	}

	publishChange(ctx, "settings", ChangeActionUpdate, settings.ID)
	return settings, nil
}
