package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/birthday-reminder/internal/domain"
)

func TestToDomainCandidateDropsBlankToken(t *testing.T) {
	t.Parallel()

	blank := "   "
	row := candidateRow{
		UserID:            uuid.New(),
		FriendID:          uuid.New(),
		DeviceToken:       &blank,
		Timezone:          " Europe/Paris ",
		PushNotifications: true,
	}
	got := toDomainCandidate(row)
	if got.DeviceToken != nil {
		t.Fatalf("expected blank token to map to nil, got %q", *got.DeviceToken)
	}
	if got.Timezone != "Europe/Paris" {
		t.Fatalf("expected trimmed timezone, got %q", got.Timezone)
	}
}

func TestToNotificationModelStoresUTC(t *testing.T) {
	t.Parallel()

	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	sent := time.Date(2026, time.October, 19, 10, 0, 0, 0, paris)
	model := toNotificationModel(domain.NotificationRecord{
		NotificationID: uuid.New(),
		Channel:        domain.ChannelPush,
		DateSent:       sent,
	})
	if model.DateSent.Location() != time.UTC || !model.DateSent.Equal(sent) {
		t.Fatalf("expected utc timestamp equal to %v, got %v", sent, model.DateSent)
	}
	if model.Channel != "push" {
		t.Fatalf("expected push channel, got %q", model.Channel)
	}
}

func TestMigrationsAreEmbeddedInOrder(t *testing.T) {
	t.Parallel()

	names, err := migrationNames()
	if err != nil {
		t.Fatalf("migration names: %v", err)
	}
	if len(names) == 0 || names[0] != "001_init.sql" {
		t.Fatalf("expected 001_init.sql first, got %v", names)
	}
}
