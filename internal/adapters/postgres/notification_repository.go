package postgres

import (
	"context"
	"fmt"

	"github.com/viralforge/birthday-reminder/internal/domain"
	"gorm.io/gorm"
)

const recordBatchSize = 500

type notificationRepository struct {
	db *gorm.DB
}

func (r *notificationRepository) RecordSent(ctx context.Context, records []domain.NotificationRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]notificationModel, 0, len(records))
	for _, record := range records {
		rows = append(rows, toNotificationModel(record))
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&rows, recordBatchSize).Error; err != nil {
		return fmt.Errorf("record sent notifications: %w", err)
	}
	return nil
}
