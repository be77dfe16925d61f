package domain

import (
	"fmt"
	"strings"
	"time"
)

const DefaultPushSound = "default"

// LoadUserLocation resolves an IANA timezone name. Empty names mean UTC.
func LoadUserLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, name)
	}
	return loc, nil
}

// UpcomingBirthday returns midnight of the next birthday occurrence in loc that
// is not before now. Only month and day of dob are used; a 29 February birthday
// lands on 1 March in non-leap years.
func UpcomingBirthday(dob, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	occurrence := time.Date(local.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, loc)
	if occurrence.Before(now) {
		occurrence = time.Date(local.Year()+1, dob.Month(), dob.Day(), 0, 0, 0, 0, loc)
	}
	return occurrence
}

// HoursUntil truncates to whole hours and never goes below zero.
func HoursUntil(now, occurrence time.Time) int {
	d := occurrence.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Hour)
}

// SuppressedBy reports whether a notification sent at lastSent still blocks the
// pair. The threshold itself does not suppress.
func SuppressedBy(lastSent *time.Time, clearanceThreshold time.Time) bool {
	return lastSent != nil && lastSent.After(clearanceThreshold)
}

func BirthdayMessageBody(friendName string, hoursUntil int) string {
	return fmt.Sprintf("%s's birthday is %d hours away!", friendName, hoursUntil)
}

func NewBirthdayPushMessage(n EligibleNotification) PushMessage {
	to := ""
	if n.DeviceToken != nil {
		to = *n.DeviceToken
	}
	return PushMessage{
		To:    to,
		Sound: DefaultPushSound,
		Body:  BirthdayMessageBody(n.FriendName, n.HoursUntil),
	}
}
