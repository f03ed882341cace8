package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/udisondev/codenames/internal/model"
	"github.com/udisondev/codenames/internal/users"
)

// FakeUserRepository — потокобезопасная in-memory реализация
// users.Repository для unit и e2e тестов без PostgreSQL.
type FakeUserRepository struct {
	mu   sync.Mutex
	byID map[string]*model.User
	// Err подменяет результат всех операций (проверка storage-ошибок).
	Err error
}

// NewFakeUserRepository creates an empty in-memory repository.
func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{byID: make(map[string]*model.User)}
}

func (f *FakeUserRepository) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *FakeUserRepository) GetByNickname(_ context.Context, nick string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for _, u := range f.byID {
		if u.Nickname == nick {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *FakeUserRepository) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if _, dup := f.byID[u.ID]; dup {
		return users.ErrDuplicate
	}
	for _, existing := range f.byID {
		if existing.Nickname == u.Nickname {
			return users.ErrDuplicate
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *FakeUserRepository) UpdateNickname(_ context.Context, id, nick string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	u, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("no user %q", id)
	}
	for otherID, other := range f.byID {
		if otherID != id && other.Nickname == nick {
			return users.ErrDuplicate
		}
	}
	u.Nickname = nick
	return nil
}

func (f *FakeUserRepository) UpdateReports(_ context.Context, id string, count int, suspended bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	u, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("no user %q", id)
	}
	u.ReportCount = count
	u.Suspended = suspended
	return nil
}

func (f *FakeUserRepository) AddResult(_ context.Context, id string, win bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	u, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("no user %q", id)
	}
	if win {
		u.Wins++
	} else {
		u.Losses++
	}
	return nil
}

// User returns a copy of the stored record, nil when absent.
func (f *FakeUserRepository) User(id string) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}
