package ports

import (
	"context"

	"github.com/viralforge/birthday-reminder/internal/domain"
)

// EligibilityRepository is the single logical read behind the resolver: one
// row per (user with a channel enabled, friend), with the user's most recently
// registered device token and the newest send time for the pair.
type EligibilityRepository interface {
	ListCandidates(ctx context.Context) ([]domain.BirthdayCandidate, error)
}

type NotificationRecordRepository interface {
	RecordSent(ctx context.Context, records []domain.NotificationRecord) error
}
