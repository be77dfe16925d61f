package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/viralforge/birthday-reminder/internal/domain"
)

func TestReconcileUnknownBatchIsNoop(t *testing.T) {
	t.Parallel()

	f := newFixture()
	report := f.service.Reconcile(context.Background(), "never-stored")
	if report.Found {
		t.Fatalf("expected missing batch, got %+v", report)
	}
	if calls := f.gateway.receiptCallsSnapshot(); len(calls) != 0 {
		t.Fatalf("expected no receipt polls, got %d", len(calls))
	}
	if _, err := f.service.BatchStatus("never-stored"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected untracked batch, got %v", err)
	}
}

func TestReconcileTwiceIsNoop(t *testing.T) {
	t.Parallel()

	f := newFixture()
	report := f.service.DispatchSync(context.Background(), []domain.EligibleNotification{eligibleWithToken("tok1")})

	first := f.service.Reconcile(context.Background(), report.BatchID)
	second := f.service.Reconcile(context.Background(), report.BatchID)
	if !first.Found || first.OKCount != 1 {
		t.Fatalf("unexpected first reconcile %+v", first)
	}
	if second.Found || second.ReceiptCount != 0 {
		t.Fatalf("expected second reconcile to be a no-op, got %+v", second)
	}
	if calls := f.gateway.receiptCallsSnapshot(); len(calls) != 1 {
		t.Fatalf("expected a single receipt poll, got %d", len(calls))
	}
	status, err := f.service.BatchStatus(report.BatchID)
	if err != nil || status.State != string(domain.BatchStateReconciled) {
		t.Fatalf("expected reconciled state to stick, got %+v %v", status, err)
	}
}

func TestReconcileMissingEntryMarksBatchLost(t *testing.T) {
	t.Parallel()

	f := newFixture()
	report := f.service.DispatchSync(context.Background(), []domain.EligibleNotification{eligibleWithToken("tok1")})
	f.tickets.drop(report.BatchID)

	f.service.Reconcile(context.Background(), report.BatchID)
	status, err := f.service.BatchStatus(report.BatchID)
	if err != nil || status.State != string(domain.BatchStateLost) {
		t.Fatalf("expected lost state, got %+v %v", status, err)
	}
}

func TestReconcileClassifiesReceiptsAndSurvivesChunkFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.gateway.receiptChunkSize = 2
	f.gateway.failReceiptChunk[1] = true
	f.gateway.receipts["receipt-tok1"] = domain.PushReceipt{
		Status:  domain.TicketStatusError,
		Message: "The device cannot receive push notifications anymore",
		Details: &domain.PushErrorDetails{Error: "DeviceNotRegistered"},
	}
	f.gateway.receipts["receipt-tok4"] = domain.PushReceipt{Status: domain.TicketStatusError, Message: "rate exceeded"}
	f.gateway.ticketFor = func(msg domain.PushMessage) domain.PushTicket {
		if msg.To == "tok5" {
			return domain.PushTicket{Status: domain.TicketStatusError, Message: "invalid token"}
		}
		return domain.PushTicket{Status: domain.TicketStatusOK, ID: "receipt-" + msg.To}
	}
	eligible := make([]domain.EligibleNotification, 0, 6)
	for i := 0; i < 6; i++ {
		eligible = append(eligible, eligibleWithToken(fmt.Sprintf("tok%d", i)))
	}
	dispatched := f.service.DispatchSync(context.Background(), eligible)

	report := f.service.Reconcile(context.Background(), dispatched.BatchID)
	calls := f.gateway.receiptCallsSnapshot()
	if len(calls) != 3 {
		t.Fatalf("expected ceil(5/2)=3 receipt polls, got %d", len(calls))
	}
	if calls[0][0] != "receipt-tok0" || calls[2][0] != "receipt-tok4" {
		t.Fatalf("expected receipt ids in ticket order, got %v", calls)
	}
	if report.ReceiptCount != 5 || report.OKCount != 1 || report.ErrorCount != 2 {
		t.Fatalf("unexpected classification %+v", report)
	}
	failed := 0
	for _, c := range report.Chunks {
		if c.Failed() {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("expected one failed receipt chunk, got %d", failed)
	}
}

func TestReconcileMalformedBatchIsAbsorbed(t *testing.T) {
	t.Parallel()

	f := newFixture()
	if err := f.tickets.Put(context.Background(), "corrupt", "{not-json", time.Minute); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	report := f.service.Reconcile(context.Background(), "corrupt")
	if !report.Found || report.ReceiptCount != 0 {
		t.Fatalf("expected found batch with no receipts, got %+v", report)
	}
}

func TestEndToEndBirthdayTenHoursAway(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	c := candidateDueOn(time.October, 20)
	c.Timezone = "Etc/GMT-6"
	c.FriendName = "F"
	f.candidates.rows = []domain.BirthdayCandidate{c}

	resolved := f.service.ResolveEligible(ctx, 96, 24)
	if len(resolved.Notifications) != 1 {
		t.Fatalf("expected one eligible tuple, got %+v", resolved.Notifications)
	}
	n := resolved.Notifications[0]
	if n.UserID != c.UserID.String() || n.FriendID != c.FriendID.String() || n.HoursUntil != 10 || !n.PushNotifications {
		t.Fatalf("unexpected tuple %+v", n)
	}

	report := f.service.DispatchSync(ctx, resolved.Notifications)
	if len(f.gateway.sendCalls) != 1 || len(f.gateway.sendCalls[0]) != 1 {
		t.Fatalf("expected one message in one chunk, got %v", f.gateway.sendCalls)
	}
	msg := f.gateway.sendCalls[0][0]
	if msg.Body != "F's birthday is 10 hours away!" || msg.To != "tok1" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if tickets := storedTickets(t, f, report.BatchID); len(tickets) != 1 {
		t.Fatalf("expected one stored ticket, got %d", len(tickets))
	}

	<-f.scheduler.scheduled
	f.scheduler.runAll()

	calls := f.gateway.receiptCallsSnapshot()
	if len(calls) != 1 || len(calls[0]) != 1 || calls[0][0] != "receipt-tok1" {
		t.Fatalf("expected receipt poll for the single ticket, got %v", calls)
	}
	status, err := f.service.BatchStatus(report.BatchID)
	if err != nil || status.State != string(domain.BatchStateReconciled) {
		t.Fatalf("expected reconciled batch, got %+v %v", status, err)
	}

	// The send was recorded, so the pair is now inside its clearance window.
	records := f.records.all()
	if len(records) != 1 || records[0].FriendID != c.FriendID {
		t.Fatalf("expected a notification record for the pair, got %+v", records)
	}
	f.candidates.rows[0].LastSentAt = &records[0].DateSent
	if again := f.service.ResolveEligible(ctx, 96, 24); len(again.Notifications) != 0 {
		t.Fatalf("expected suppression after sending, got %+v", again.Notifications)
	}
}

func TestRunOnceResolvesAndDispatches(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.candidates.rows = []domain.BirthdayCandidate{candidateDueOn(time.October, 20), candidateDueOn(time.December, 1)}

	report := f.service.RunOnce(context.Background())
	if report.EligibleCount != 1 || report.PushCount != 1 || report.BatchID == "" || report.ResolutionFailed {
		t.Fatalf("unexpected run report %+v", report)
	}

	f.candidates.err = errors.New("db down")
	report = f.service.RunOnce(context.Background())
	if !report.ResolutionFailed || report.BatchID != "" {
		t.Fatalf("expected failed resolution without dispatch, got %+v", report)
	}
}
