package postgres

import (
	"context"
	"fmt"

	"github.com/viralforge/birthday-reminder/internal/domain"
	"gorm.io/gorm"
)

// candidatesQuery lists every (user, friend) pair for users with at least one
// channel enabled. A user with several devices contributes the most recently
// registered token only. last_sent_at is the newest notification for the pair
// on any channel.
const candidatesQuery = `
SELECT
    u.user_id,
    f.friend_id,
    u.email,
    d.token AS device_token,
    f.name AS friend_name,
    f.date_of_birth,
    u.timezone,
    u.email_notifications,
    u.push_notifications,
    n.last_sent_at
FROM users u
JOIN friends f ON f.user_id = u.user_id
LEFT JOIN LATERAL (
    SELECT dv.token
    FROM devices dv
    WHERE dv.user_id = u.user_id
    ORDER BY dv.created_at DESC, dv.device_id DESC
    LIMIT 1
) d ON TRUE
LEFT JOIN LATERAL (
    SELECT MAX(ns.date_sent) AS last_sent_at
    FROM notifications ns
    WHERE ns.user_id = u.user_id AND ns.friend_id = f.friend_id
) n ON TRUE
WHERE u.email_notifications OR u.push_notifications
ORDER BY u.user_id, f.friend_id`

type eligibilityRepository struct {
	db *gorm.DB
}

func (r *eligibilityRepository) ListCandidates(ctx context.Context) ([]domain.BirthdayCandidate, error) {
	var rows []candidateRow
	if err := r.db.WithContext(ctx).Raw(candidatesQuery).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list birthday candidates: %w", err)
	}
	out := make([]domain.BirthdayCandidate, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainCandidate(row))
	}
	return out, nil
}
