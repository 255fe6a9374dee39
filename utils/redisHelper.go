package utils

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/mmdatafocus/billing_backend/config"
)

var seqMutex sync.Mutex

// get type name of struct
func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

// GetSequence returns the next per-business sequence number for model T.
// Redis INCR is the fast path; on a fresh counter the value is seeded from
// MAX(sequence_no) in the database, then validated unique before returning.
func GetSequence[T any](ctx context.Context, businessId string) (int64, error) {
	var model T
	seqMutex.Lock()
	defer seqMutex.Unlock()

	cacheKey := businessId + "-" + strings.ToLower(GetTypeName[T]()) + "_seq"
	var seqNo int64
	var err error
	db := config.GetDB()

	for {
		seqNo, err = config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return 0, err
		}
		// fresh counter (or redis absent): seed from db
		if seqNo <= 1 {
			var dbSeq *int64
			if err := db.WithContext(ctx).Model(&model).Select("max(sequence_no)").
				Where("business_id = ?", businessId).
				Scan(&dbSeq).Error; err != nil {
				return 0, err
			}
			if dbSeq == nil {
				seqNo = 0
			} else {
				seqNo = *dbSeq
			}
			seqNo++
			if err := config.SetRedisCounter(ctx, cacheKey, seqNo); err != nil {
				return 0, err
			}
		}
		// guard against a stale counter colliding with existing rows
		if err := ValidateUnique[T](ctx, businessId, "sequence_no", seqNo, 0); err == nil {
			return seqNo, nil
		}
	}
}
