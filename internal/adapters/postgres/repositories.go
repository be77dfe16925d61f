package postgres

import (
	"github.com/viralforge/birthday-reminder/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Candidates    ports.EligibilityRepository
	Notifications ports.NotificationRecordRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Candidates:    &eligibilityRepository{db: db},
		Notifications: &notificationRepository{db: db},
	}
}
