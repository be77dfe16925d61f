package domain

import (
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

// BirthdayCandidate is one (user, friend) row of the eligibility read, before
// any date arithmetic or suppression has been applied.
type BirthdayCandidate struct {
	UserID             uuid.UUID
	FriendID           uuid.UUID
	Email              string
	DeviceToken        *string
	FriendName         string
	DateOfBirth        time.Time
	Timezone           string
	EmailNotifications bool
	PushNotifications  bool
	LastSentAt         *time.Time
}

// EligibleNotification is a (user, friend) pair that passed the cutoff and
// clearance checks.
type EligibleNotification struct {
	UserID             string
	FriendID           string
	Email              string
	DeviceToken        *string
	FriendName         string
	HoursUntil         int
	EmailNotifications bool
	PushNotifications  bool
}

func (n EligibleNotification) WantsPush() bool {
	return n.PushNotifications && n.DeviceToken != nil && *n.DeviceToken != ""
}

type NotificationRecord struct {
	NotificationID uuid.UUID
	UserID         uuid.UUID
	FriendID       uuid.UUID
	Channel        Channel
	DateSent       time.Time
}

type PushMessage struct {
	To    string
	Sound string
	Body  string
}

type TicketStatus string

const (
	TicketStatusOK    TicketStatus = "ok"
	TicketStatusError TicketStatus = "error"
)

type PushErrorDetails struct {
	Error string `json:"error,omitempty"`
}

// PushTicket is the gateway acknowledgment for one submitted message. A ticket
// with status "error" never carries an ID.
type PushTicket struct {
	Status  TicketStatus      `json:"status"`
	ID      string            `json:"id,omitempty"`
	Message string            `json:"message,omitempty"`
	Details *PushErrorDetails `json:"details,omitempty"`
}

func (t PushTicket) ReceiptID() (string, bool) {
	if t.Status != TicketStatusOK || t.ID == "" {
		return "", false
	}
	return t.ID, true
}

type PushReceipt struct {
	Status  TicketStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details *PushErrorDetails `json:"details,omitempty"`
}

type DispatchBatch struct {
	BatchID   string       `json:"batch_id"`
	CreatedAt time.Time    `json:"created_at"`
	Tickets   []PushTicket `json:"tickets"`
}

func (b DispatchBatch) ReceiptIDs() []string {
	out := make([]string, 0, len(b.Tickets))
	for _, ticket := range b.Tickets {
		if id, ok := ticket.ReceiptID(); ok {
			out = append(out, id)
		}
	}
	return out
}

type BatchState string

const (
	BatchStatePending    BatchState = "pending"
	BatchStateReconciled BatchState = "reconciled"
	BatchStateLost       BatchState = "lost"
)

func (s BatchState) Terminal() bool {
	return s == BatchStateReconciled || s == BatchStateLost
}

type BatchStatus struct {
	BatchID     string
	State       BatchState
	TicketCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ChunkOutcome is the result of one gateway call covering a single chunk.
type ChunkOutcome struct {
	Index int
	Size  int
	Err   error
}

func (o ChunkOutcome) Failed() bool { return o.Err != nil }
