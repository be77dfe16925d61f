package postgres

import (
	"time"

	"github.com/google/uuid"
)

type notificationModel struct {
	NotificationID uuid.UUID `gorm:"column:notification_id;type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id"`
	FriendID       uuid.UUID `gorm:"column:friend_id"`
	Channel        string    `gorm:"column:channel"`
	DateSent       time.Time `gorm:"column:date_sent"`
}

func (notificationModel) TableName() string { return "notifications" }

// candidateRow is the projection returned by the eligibility query.
type candidateRow struct {
	UserID             uuid.UUID  `gorm:"column:user_id"`
	FriendID           uuid.UUID  `gorm:"column:friend_id"`
	Email              string     `gorm:"column:email"`
	DeviceToken        *string    `gorm:"column:device_token"`
	FriendName         string     `gorm:"column:friend_name"`
	DateOfBirth        time.Time  `gorm:"column:date_of_birth"`
	Timezone           string     `gorm:"column:timezone"`
	EmailNotifications bool       `gorm:"column:email_notifications"`
	PushNotifications  bool       `gorm:"column:push_notifications"`
	LastSentAt         *time.Time `gorm:"column:last_sent_at"`
}
