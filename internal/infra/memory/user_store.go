package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// UserStore is an in-memory implementation of auth.UserStore for running
// without Postgres and for tests.
type UserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[string]domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{nextID: 1, users: make(map[string]domain.User)}
}

func (s *UserStore) Create(_ context.Context, username, email, passwordHash string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username || user.Email == email {
			return domain.User{}, domain.ErrUserExists
		}
	}
	user := domain.User{
		ID:        strconv.Itoa(s.nextID),
		Username:  username,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: time.Now(),
	}
	s.nextID++
	s.users[user.ID] = user
	return user, nil
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, true, nil
		}
	}
	return domain.User{}, false, nil
}
