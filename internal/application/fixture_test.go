package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/birthday-reminder/internal/application"
	"github.com/viralforge/birthday-reminder/internal/domain"
)

var testNow = time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	return newFixtureWithConfig(application.Config{
		ServiceName:       "birthday-reminder-test",
		CutoffHours:       96,
		ClearanceHours:    24,
		ReconcileDelay:    60 * time.Second,
		TicketTTL:         10 * time.Minute,
		SubmitConcurrency: 2,
	})
}

func newFixtureWithConfig(cfg application.Config) *fixture {
	f := &fixture{
		candidates: &fakeCandidates{},
		records:    &fakeRecords{},
		gateway:    newFakeGateway(100, 300),
		tickets:    &fakeTicketStore{items: map[string]string{}},
		scheduler:  &manualScheduler{scheduled: make(chan time.Duration, 16)},
		publisher:  &fakePublisher{},
	}
	batchSeq := 0
	var mu sync.Mutex
	f.service = application.NewService(application.Dependencies{
		Config:     cfg,
		Candidates: f.candidates,
		Records:    f.records,
		Gateway:    f.gateway,
		Tickets:    f.tickets,
		Scheduler:  f.scheduler,
		Publisher:  f.publisher,
		Clock:      func() time.Time { return testNow },
		BatchIDs: func() string {
			mu.Lock()
			defer mu.Unlock()
			batchSeq++
			return fmt.Sprintf("batch-%d", batchSeq)
		},
	})
	return f
}

type fixture struct {
	service    *application.Service
	candidates *fakeCandidates
	records    *fakeRecords
	gateway    *fakeGateway
	tickets    *fakeTicketStore
	scheduler  *manualScheduler
	publisher  *fakePublisher
}

func strPtr(v string) *string { return &v }

func timePtr(v time.Time) *time.Time { return &v }

// candidateDueOn builds a push-enabled UTC candidate whose friend was born on
// the given month and day.
func candidateDueOn(month time.Month, day int) domain.BirthdayCandidate {
	return domain.BirthdayCandidate{
		UserID:            uuid.New(),
		FriendID:          uuid.New(),
		Email:             "user@example.com",
		DeviceToken:       strPtr("tok1"),
		FriendName:        "F",
		DateOfBirth:       time.Date(1990, month, day, 0, 0, 0, 0, time.UTC),
		Timezone:          "UTC",
		PushNotifications: true,
	}
}

type fakeCandidates struct {
	mu   sync.Mutex
	rows []domain.BirthdayCandidate
	err  error
}

func (f *fakeCandidates) ListCandidates(context.Context) ([]domain.BirthdayCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.BirthdayCandidate, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

type fakeRecords struct {
	mu      sync.Mutex
	records []domain.NotificationRecord
}

func (f *fakeRecords) RecordSent(_ context.Context, records []domain.NotificationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeRecords) all() []domain.NotificationRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.NotificationRecord, len(f.records))
	copy(out, f.records)
	return out
}

var errGatewayDown = errors.New("gateway unavailable")

type fakeGateway struct {
	mu               sync.Mutex
	messageChunkSize int
	receiptChunkSize int
	sendCalls        [][]domain.PushMessage
	receiptCalls     [][]string
	failSendChunk    map[string]bool
	failReceiptChunk map[int]bool
	ticketFor        func(domain.PushMessage) domain.PushTicket
	receipts         map[string]domain.PushReceipt
}

func newFakeGateway(messageChunkSize, receiptChunkSize int) *fakeGateway {
	return &fakeGateway{
		messageChunkSize: messageChunkSize,
		receiptChunkSize: receiptChunkSize,
		failSendChunk:    map[string]bool{},
		failReceiptChunk: map[int]bool{},
		receipts:         map[string]domain.PushReceipt{},
	}
}

func (g *fakeGateway) ChunkMessages(messages []domain.PushMessage) [][]domain.PushMessage {
	var out [][]domain.PushMessage
	for start := 0; start < len(messages); start += g.messageChunkSize {
		end := min(start+g.messageChunkSize, len(messages))
		out = append(out, messages[start:end])
	}
	return out
}

func (g *fakeGateway) SendChunk(_ context.Context, chunk []domain.PushMessage) ([]domain.PushTicket, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sendCalls = append(g.sendCalls, chunk)
	if len(chunk) > 0 && g.failSendChunk[chunk[0].To] {
		return nil, errGatewayDown
	}
	out := make([]domain.PushTicket, 0, len(chunk))
	for _, msg := range chunk {
		if g.ticketFor != nil {
			out = append(out, g.ticketFor(msg))
			continue
		}
		out = append(out, domain.PushTicket{Status: domain.TicketStatusOK, ID: "receipt-" + msg.To})
	}
	return out, nil
}

func (g *fakeGateway) ChunkReceiptIDs(ids []string) [][]string {
	var out [][]string
	for start := 0; start < len(ids); start += g.receiptChunkSize {
		end := min(start+g.receiptChunkSize, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

func (g *fakeGateway) GetReceipts(_ context.Context, ids []string) (map[string]domain.PushReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	index := len(g.receiptCalls)
	g.receiptCalls = append(g.receiptCalls, ids)
	if g.failReceiptChunk[index] {
		return nil, errGatewayDown
	}
	out := make(map[string]domain.PushReceipt, len(ids))
	for _, id := range ids {
		if receipt, ok := g.receipts[id]; ok {
			out[id] = receipt
			continue
		}
		out[id] = domain.PushReceipt{Status: domain.TicketStatusOK}
	}
	return out, nil
}

func (g *fakeGateway) sendCallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sendCalls)
}

func (g *fakeGateway) receiptCallsSnapshot() [][]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([][]string, len(g.receiptCalls))
	copy(out, g.receiptCalls)
	return out
}

type fakeTicketStore struct {
	mu    sync.Mutex
	items map[string]string
	ttls  []time.Duration
}

func (f *fakeTicketStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[key] = value
	f.ttls = append(f.ttls, ttl)
	return nil
}

func (f *fakeTicketStore) Take(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.items[key]
	delete(f.items, key)
	return v, ok, nil
}

func (f *fakeTicketStore) peek(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.items[key]
	return v, ok
}

func (f *fakeTicketStore) drop(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, key)
}

// manualScheduler captures tasks so tests decide when the delay has elapsed.
type manualScheduler struct {
	mu        sync.Mutex
	tasks     []func()
	delays    []time.Duration
	scheduled chan time.Duration
}

func (s *manualScheduler) Schedule(delay time.Duration, task func()) {
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.delays = append(s.delays, delay)
	s.mu.Unlock()
	s.scheduled <- delay
}

func (s *manualScheduler) runAll() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()
	for _, task := range tasks {
		task()
	}
}

type publishedEvent struct {
	eventType    string
	partitionKey string
	payload      []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(_ context.Context, eventType string, payload []byte, partitionKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{eventType: eventType, partitionKey: partitionKey, payload: payload})
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.eventType)
	}
	return out
}
