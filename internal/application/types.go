package application

import (
	"time"

	"github.com/viralforge/birthday-reminder/internal/domain"
)

type Config struct {
	ServiceName         string
	CutoffHours         int
	ClearanceHours      int
	ReconcileDelay      time.Duration
	TicketTTL           time.Duration
	SubmitConcurrency   int
	BatchStateRetention time.Duration
}

// ResolveResult keeps the resolver's degrade-to-empty behavior while still
// telling callers whether the empty result came from a failure.
type ResolveResult struct {
	Notifications []domain.EligibleNotification
	Err           error
}

func (r ResolveResult) Failed() bool { return r.Err != nil }

type DispatchReport struct {
	BatchID          string
	MessageCount     int
	TicketCount      int
	ErrorTicketCount int
	Chunks           []domain.ChunkOutcome
	Stored           bool
	Scheduled        bool
}

func (r DispatchReport) FailedChunks() int {
	n := 0
	for _, c := range r.Chunks {
		if c.Failed() {
			n++
		}
	}
	return n
}

type ReconcileReport struct {
	BatchID      string
	Found        bool
	ReceiptCount int
	OKCount      int
	ErrorCount   int
	MissingCount int
	Chunks       []domain.ChunkOutcome
}

type RunReport struct {
	BatchID          string `json:"batch_id,omitempty"`
	EligibleCount    int    `json:"eligible_count"`
	PushCount        int    `json:"push_count"`
	ResolutionFailed bool   `json:"resolution_failed"`
}

type EligibleNotificationResponse struct {
	UserID             string `json:"user_id"`
	FriendID           string `json:"friend_id"`
	Email              string `json:"email"`
	DeviceToken        string `json:"device_token,omitempty"`
	FriendName         string `json:"friend_name"`
	HoursUntil         int    `json:"hours_until"`
	EmailNotifications bool   `json:"email_notifications"`
	PushNotifications  bool   `json:"push_notifications"`
}

type BatchStatusResponse struct {
	BatchID     string `json:"batch_id"`
	State       string `json:"state"`
	TicketCount int    `json:"ticket_count"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type batchDispatchedEventData struct {
	BatchID          string `json:"batch_id"`
	MessageCount     int    `json:"message_count"`
	TicketCount      int    `json:"ticket_count"`
	ErrorTicketCount int    `json:"error_ticket_count"`
	FailedChunks     int    `json:"failed_chunks"`
}

type batchReconciledEventData struct {
	BatchID      string `json:"batch_id"`
	ReceiptCount int    `json:"receipt_count"`
	OKCount      int    `json:"ok_count"`
	ErrorCount   int    `json:"error_count"`
	MissingCount int    `json:"missing_count"`
	FailedChunks int    `json:"failed_chunks"`
}
