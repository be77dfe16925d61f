package application

import (
	"context"

	"github.com/viralforge/birthday-reminder/internal/domain"
)

// RunOnce resolves with the configured windows and dispatches the result,
// waiting for the gateway. It is what the periodic worker calls.
func (s *Service) RunOnce(ctx context.Context) RunReport {
	resolved := s.ResolveDefault(ctx)
	report := RunReport{
		EligibleCount:    len(resolved.Notifications),
		PushCount:        len(pushTargets(resolved.Notifications)),
		ResolutionFailed: resolved.Failed(),
	}
	if report.PushCount == 0 {
		return report
	}
	report.BatchID = s.DispatchSync(ctx, resolved.Notifications).BatchID
	return report
}

// TriggerRun resolves synchronously and hands the result to Dispatch, so the
// caller gets the batch id back before any chunk is submitted.
func (s *Service) TriggerRun(ctx context.Context) RunReport {
	resolved := s.ResolveDefault(ctx)
	return RunReport{
		BatchID:          s.Dispatch(ctx, resolved.Notifications),
		EligibleCount:    len(resolved.Notifications),
		PushCount:        len(pushTargets(resolved.Notifications)),
		ResolutionFailed: resolved.Failed(),
	}
}

// PreviewEligible exposes the resolver output. Unlike the dispatch path it
// turns a failed resolution into an error.
func (s *Service) PreviewEligible(ctx context.Context, cutoffHours, clearanceHours int) ([]EligibleNotificationResponse, error) {
	if clearanceHours < 0 {
		return nil, domain.ErrInvalidInput
	}
	resolved := s.ResolveEligible(ctx, cutoffHours, clearanceHours)
	if resolved.Failed() {
		return nil, resolved.Err
	}
	out := make([]EligibleNotificationResponse, 0, len(resolved.Notifications))
	for _, n := range resolved.Notifications {
		item := EligibleNotificationResponse{
			UserID:             n.UserID,
			FriendID:           n.FriendID,
			Email:              n.Email,
			FriendName:         n.FriendName,
			HoursUntil:         n.HoursUntil,
			EmailNotifications: n.EmailNotifications,
			PushNotifications:  n.PushNotifications,
		}
		if n.DeviceToken != nil {
			item.DeviceToken = *n.DeviceToken
		}
		out = append(out, item)
	}
	return out, nil
}
