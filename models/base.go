package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/billing_backend/config"
	"github.com/mmdatafocus/billing_backend/utils"
)

// publishChange emits a best-effort table-change signal after commit.
// Failures are logged; the business operation is already durable.
func publishChange(ctx context.Context, table string, action string, referenceId int) {
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	userId, _ := utils.GetUserIdFromContext(ctx)
	userName, _ := utils.GetUserNameFromContext(ctx)
	event := config.ChangeEvent{
		BusinessId:    businessId,
		Table:         table,
		Action:        action,
		ReferenceId:   referenceId,
		UserId:        userId,
		UserName:      userName,
		OccurredAt:    time.Now().UTC(),
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	if err := config.PublishChangeEvent(event); err != nil {
		config.LogError(config.GetLogger(), "models", "publishChange", table, event, err)
	}
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
