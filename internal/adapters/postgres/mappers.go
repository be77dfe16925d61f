package postgres

import (
	"strings"

	"github.com/viralforge/birthday-reminder/internal/domain"
)

func toDomainCandidate(row candidateRow) domain.BirthdayCandidate {
	return domain.BirthdayCandidate{
		UserID:             row.UserID,
		FriendID:           row.FriendID,
		Email:              row.Email,
		DeviceToken:        nullableString(row.DeviceToken),
		FriendName:         row.FriendName,
		DateOfBirth:        row.DateOfBirth,
		Timezone:           strings.TrimSpace(row.Timezone),
		EmailNotifications: row.EmailNotifications,
		PushNotifications:  row.PushNotifications,
		LastSentAt:         row.LastSentAt,
	}
}

func toNotificationModel(record domain.NotificationRecord) notificationModel {
	return notificationModel{
		NotificationID: record.NotificationID,
		UserID:         record.UserID,
		FriendID:       record.FriendID,
		Channel:        string(record.Channel),
		DateSent:       record.DateSent.UTC(),
	}
}

// nullableString treats a blank token the same as a missing device row.
func nullableString(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
