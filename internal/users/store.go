package users

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/udisondev/codenames/internal/model"
)

var (
	// ErrDuplicate reports an id or nickname already taken by another account.
	ErrDuplicate = errors.New("duplicate id or nickname")
	// ErrNoAccount reports a login attempt against an unknown id.
	ErrNoAccount = errors.New("no such account")
	// ErrWrongPassword reports a failed password check.
	ErrWrongPassword = errors.New("wrong password")
	// ErrSuspended reports a login attempt against a suspended account.
	ErrSuspended = errors.New("account suspended")
	// ErrNotFound reports a lookup miss outside the login flow.
	ErrNotFound = errors.New("user not found")
)

// SuspendThreshold is the report count at which an account gets suspended.
const SuspendThreshold = 5

// Match results persisted per player.
const (
	ResultWin  = "WIN"
	ResultLoss = "LOSS"
)

// Store управляет учётными записями: регистрация, вход, жалобы, статистика.
// Один мьютекс сериализует все операции, включая чтения, поэтому
// последовательности read-modify-write (проверки перед регистрацией,
// подсчёт жалоб) атомарны в рамках процесса.
type Store struct {
	mu   sync.Mutex
	repo Repository
}

// NewStore создаёт Store поверх репозитория.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// CheckID reports whether id is already registered.
func (s *Store) CheckID(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

// Signup creates an account with a fresh salt and Argon2id digest.
// Returns ErrDuplicate when the id or nickname is already taken.
func (s *Store) Signup(ctx context.Context, id, password, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicate
	}
	existing, err = s.repo.GetByNickname(ctx, nickname)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicate
	}

	salt, err := NewSalt()
	if err != nil {
		return err
	}
	u := &model.User{
		ID:           id,
		PasswordHash: HashPassword(password, salt),
		Salt:         salt,
		Nickname:     nickname,
		CreatedAt:    time.Now(),
	}
	return s.repo.Create(ctx, u)
}

// Login validates credentials and returns the account record.
// Checks run in a fixed order: ErrNoAccount, then ErrWrongPassword,
// then ErrSuspended. Suspension is only reported for a correct password.
func (s *Store) Login(ctx context.Context, id, password string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNoAccount
	}
	if !VerifyPassword(password, u.Salt, u.PasswordHash) {
		return nil, ErrWrongPassword
	}
	if u.Suspended {
		return nil, ErrSuspended
	}
	return u, nil
}

// LookupProfile returns the account record for id, ErrNotFound on a miss.
func (s *Store) LookupProfile(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// UpdateNickname renames the account with id to nickname.
// Returns ErrDuplicate when another account already holds the nickname.
func (s *Store) UpdateNickname(ctx context.Context, id, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrNotFound
	}
	holder, err := s.repo.GetByNickname(ctx, nickname)
	if err != nil {
		return err
	}
	if holder != nil && holder.ID != u.ID {
		return ErrDuplicate
	}
	return s.repo.UpdateNickname(ctx, u.ID, nickname)
}

// Report увеличивает счётчик жалоб на игрока с этим ником.
// При достижении SuspendThreshold аккаунт блокируется навсегда.
// Возвращает новый счётчик и true, если блокировка произошла именно сейчас.
func (s *Store) Report(ctx context.Context, nickname string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.repo.GetByNickname(ctx, nickname)
	if err != nil {
		return 0, false, err
	}
	if u == nil {
		return 0, false, ErrNotFound
	}

	count := u.ReportCount + 1
	suspended := u.Suspended || count >= SuspendThreshold
	if err := s.repo.UpdateReports(ctx, u.ID, count, suspended); err != nil {
		return 0, false, fmt.Errorf("updating reports for %q: %w", nickname, err)
	}
	return count, suspended && !u.Suspended, nil
}

// SaveResult records a WIN or LOSS for the player with this nickname.
func (s *Store) SaveResult(ctx context.Context, nickname, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.repo.GetByNickname(ctx, nickname)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrNotFound
	}
	return s.repo.AddResult(ctx, u.ID, result == ResultWin)
}
