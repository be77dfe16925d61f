package application

import (
	"context"
	"fmt"
	"time"

	"github.com/viralforge/birthday-reminder/internal/domain"
)

// ResolveDefault resolves with the configured cutoff and clearance windows.
func (s *Service) ResolveDefault(ctx context.Context) ResolveResult {
	return s.ResolveEligible(ctx, s.cfg.CutoffHours, s.cfg.ClearanceHours)
}

// ResolveEligible derives the (user, friend) pairs to alert about an upcoming
// birthday. Failures are logged and reported through ResolveResult.Err with an
// empty notification list; they are never returned as a bare error.
func (s *Service) ResolveEligible(ctx context.Context, cutoffHours, clearanceHours int) ResolveResult {
	log := s.logger("resolve_eligible")
	now := s.nowFn()
	clearanceThreshold := now.Add(-time.Duration(clearanceHours) * time.Hour)

	candidates, err := s.candidates.ListCandidates(ctx)
	if err != nil {
		log.ErrorContext(ctx, "eligibility query failed",
			"outcome", "failure",
			"cutoff_hours", cutoffHours,
			"clearance_hours", clearanceHours,
			"error", err,
		)
		return ResolveResult{
			Notifications: []domain.EligibleNotification{},
			Err:           fmt.Errorf("%w: %v", domain.ErrResolutionFailed, err),
		}
	}

	out := make([]domain.EligibleNotification, 0, len(candidates))
	locations := map[string]*time.Location{}
	for _, c := range candidates {
		if !c.EmailNotifications && !c.PushNotifications {
			continue
		}
		loc, ok := locations[c.Timezone]
		if !ok {
			var locErr error
			loc, locErr = domain.LoadUserLocation(c.Timezone)
			if locErr != nil {
				log.WarnContext(ctx, "user timezone unknown, falling back to utc",
					"outcome", "warning",
					"user_id", c.UserID.String(),
					"timezone", c.Timezone,
				)
			}
			locations[c.Timezone] = loc
		}

		occurrence := domain.UpcomingBirthday(c.DateOfBirth, now, loc)
		hoursUntil := domain.HoursUntil(now, occurrence)
		if hoursUntil > cutoffHours {
			continue
		}
		if domain.SuppressedBy(c.LastSentAt, clearanceThreshold) {
			continue
		}

		var token *string
		if c.DeviceToken != nil && *c.DeviceToken != "" {
			v := *c.DeviceToken
			token = &v
		}
		out = append(out, domain.EligibleNotification{
			UserID:             c.UserID.String(),
			FriendID:           c.FriendID.String(),
			Email:              c.Email,
			DeviceToken:        token,
			FriendName:         c.FriendName,
			HoursUntil:         hoursUntil,
			EmailNotifications: c.EmailNotifications,
			PushNotifications:  c.PushNotifications,
		})
	}

	log.InfoContext(ctx, "eligibility resolved",
		"outcome", "success",
		"candidate_count", len(candidates),
		"eligible_count", len(out),
		"cutoff_hours", cutoffHours,
		"clearance_hours", clearanceHours,
	)
	return ResolveResult{Notifications: out}
}
