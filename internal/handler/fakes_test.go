package handler

// Shared in-memory fakes for handler tests. They mimic the storage layer's
// contract, including sentinel errors and uniqueness behavior.

import (
	"context"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/field-visit-api/internal/config"
	"github.com/iliyamo/field-visit-api/internal/model"
	"github.com/iliyamo/field-visit-api/internal/repository"
)

func testConfig() config.Config {
	return config.Config{
		Env:             "test",
		AccessTTLMin:    15,
		RefreshTTLMin:   60,
		PublicBaseURL:   "http://localhost:8080",
		NewUserThreadID: 2,
		VisitThreadID:   3,
		ErrThreadID:     4,
	}
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	return e
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// ----- user store -----

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: map[uint64]model.User{}}
}

func (f *fakeUserStore) Create(_ context.Context, u model.User) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.PhoneNumber == u.PhoneNumber {
			return 0, repository.ErrPhoneExists
		}
	}
	u.ID = f.nextID
	f.nextID++
	f.users[u.ID] = u
	return u.ID, nil
}

func (f *fakeUserStore) ByPhone(_ context.Context, phone string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.PhoneNumber == phone {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUserStore) ByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

// ----- admin store -----

type fakeAdminStore struct {
	mu     sync.Mutex
	nextID uint64
	admins map[uint64]model.Admin // by admin id
	users  *fakeUserStore
}

func newFakeAdminStore(users *fakeUserStore) *fakeAdminStore {
	return &fakeAdminStore{nextID: 1, admins: map[uint64]model.Admin{}, users: users}
}

func (f *fakeAdminStore) Create(_ context.Context, userID uint64, active bool) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.UserID == userID {
			return 0, repository.ErrAdminExists
		}
	}
	a := model.Admin{ID: f.nextID, UserID: userID, Active: active}
	f.nextID++
	f.admins[a.ID] = a
	return a.ID, nil
}

func (f *fakeAdminStore) Any(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.admins) > 0, nil
}

func (f *fakeAdminStore) ByID(_ context.Context, adminID uint64) (model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.admins[adminID]
	if !ok {
		return model.Admin{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeAdminStore) Delete(_ context.Context, adminID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.admins[adminID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.admins, adminID)
	return nil
}

func (f *fakeAdminStore) Bootstrap(ctx context.Context, u model.User) (uint64, error) {
	userID, err := f.users.Create(ctx, u)
	if err != nil {
		return 0, err
	}
	return f.Create(ctx, userID, true)
}

// ----- visit store -----

type fakeVisitStore struct {
	mu     sync.Mutex
	nextID uint64
	visits map[uint64]model.Visit
}

func newFakeVisitStore() *fakeVisitStore {
	return &fakeVisitStore{nextID: 1, visits: map[uint64]model.Visit{}}
}

func (f *fakeVisitStore) Create(_ context.Context, v model.Visit) (model.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.ID = f.nextID
	f.nextID++
	f.visits[v.ID] = v
	return v, nil
}

func (f *fakeVisitStore) ByID(_ context.Context, id uint64) (model.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.visits[id]
	if !ok {
		return model.Visit{}, repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeVisitStore) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.visits[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.visits, id)
	return nil
}

func (f *fakeVisitStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visits)
}

// ----- notifier -----

type notifiedMessage struct {
	Text     string
	ThreadID int64
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []notifiedMessage
	visitIDs []uint64
	fail     bool
}

func (f *fakeNotifier) Notify(_ context.Context, text string, threadID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return context.DeadlineExceeded
	}
	f.messages = append(f.messages, notifiedMessage{Text: text, ThreadID: threadID})
	return nil
}

func (f *fakeNotifier) NotifyVisit(_ context.Context, visitID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return context.DeadlineExceeded
	}
	f.visitIDs = append(f.visitIDs, visitID)
	return nil
}

func (f *fakeNotifier) visits() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uint64, len(f.visitIDs))
	copy(out, f.visitIDs)
	return out
}
