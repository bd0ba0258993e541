package main

import (
	"context"
	"sync"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	AddFunc      func(ctx context.Context, id string, book Book) error
	GetOneFunc   func(ctx context.Context, id string) (Book, error)
	GetAllFunc   func(ctx context.Context) ([]Book, error)
	UpdateFunc   func(ctx context.Context, id string, patch BookPatch, at time.Time) (Book, error)
	DeleteFunc   func(ctx context.Context, id string) (Book, error)
	PurchaseFunc func(ctx context.Context, id string, quantity int) (Book, error)
}

// Add mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Add(ctx context.Context, id string, book Book) error {
	return m.AddFunc(ctx, id, book)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// GetAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id string, patch BookPatch, at time.Time) (Book, error) {
	return m.UpdateFunc(ctx, id, patch, at)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id string) (Book, error) {
	return m.DeleteFunc(ctx, id)
}

// Purchase mocks the behavior of decrementing a book stock by the repository.
func (m *MockBookStorage) Purchase(ctx context.Context, id string, quantity int) (Book, error) {
	return m.PurchaseFunc(ctx, id, quantity)
}

// MockQueuer implements a fake Queuer.
type MockQueuer struct {
	PushFunc func(ctx context.Context, qid string, event CatalogEvent) error
	PopFunc  func(ctx context.Context, qids ...string) (string, CatalogEvent, error)
}

func (mq *MockQueuer) Push(ctx context.Context, qid string, event CatalogEvent) error {
	return mq.PushFunc(ctx, qid, event)
}

func (mq *MockQueuer) Pop(ctx context.Context, qids ...string) (string, CatalogEvent, error) {
	return mq.PopFunc(ctx, qids...)
}

// MockRateLimiter implements a fake RateLimiter.
type MockRateLimiter struct {
	AllowFunc func(ctx context.Context, key string) (RateLimitResult, error)
}

func (ml *MockRateLimiter) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	return ml.AllowFunc(ctx, key)
}

// MockJournalStorage implements a fake JournalStorage which keeps events in memory.
type MockJournalStorage struct {
	mu        sync.Mutex
	Events    []CatalogEvent
	AppendErr error
}

func (mj *MockJournalStorage) Append(_ context.Context, event CatalogEvent) error {
	mj.mu.Lock()
	defer mj.mu.Unlock()
	if mj.AppendErr != nil {
		return mj.AppendErr
	}
	mj.Events = append(mj.Events, event)
	return nil
}

func (mj *MockJournalStorage) Latest(_ context.Context, limit int) ([]CatalogEvent, error) {
	mj.mu.Lock()
	defer mj.mu.Unlock()
	var events []CatalogEvent
	for i := len(mj.Events) - 1; i >= 0 && len(events) < limit; i-- {
		events = append(events, mj.Events[i])
	}
	return events, nil
}

func (mj *MockJournalStorage) Close() error {
	return nil
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
// equals to `2023-07-02 00:00:00 +0000 UTC` in String format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// Add moves the mocked time forward.
func (mck *MockClocker) Add(d time.Duration) {
	mck.MockNow = mck.MockNow.Add(d)
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	if prefix == "" {
		return muid.MockedUID
	}
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}
