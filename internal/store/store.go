// Package store keeps the user collection in process memory and mirrors it
// through a Persister after every mutation.
package store

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/actuallystonmai/users-service/internal/domain"
)

// Persister loads and saves the whole collection.
type Persister interface {
	Load(ctx context.Context) ([]domain.User, error)
	Save(ctx context.Context, users []domain.User) error
}

type Store struct {
	mu        sync.RWMutex
	users     []domain.User
	nextID    int64
	persister Persister
}

// New returns an empty store. A nil persister keeps everything in memory.
func New(p Persister) *Store {
	return &Store{
		users:     make([]domain.User, 0, 16),
		nextID:    1,
		persister: p,
	}
}

// Load replaces the collection with the persisted snapshot and continues
// id assignment after the highest id found.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	users, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = append(make([]domain.User, 0, len(users)), users...)
	s.nextID = 1
	for _, u := range s.users {
		if u.ID >= s.nextID {
			s.nextID = u.ID + 1
		}
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, domain.ErrUserNotFound
	}
	u := s.users[i]
	return &u, nil
}

// Create assigns the next id and appends u.
func (s *Store) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.ID = s.nextID
	s.nextID++
	s.users = append(s.users, u)
	s.persist(ctx)

	return &u, nil
}

// Update overwrites every field of the user with the given id except the id.
func (s *Store) Update(ctx context.Context, id int64, u domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, domain.ErrUserNotFound
	}
	u.ID = id
	s.users[i] = u
	s.persist(ctx)

	return &u, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.ErrUserNotFound
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	s.persist(ctx)

	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id int64) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

// persist must be called with s.mu held for writing. Failures are logged;
// the in-memory mutation stands.
func (s *Store) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(context.WithoutCancel(ctx), s.users); err != nil {
		log.Printf("[store] persist users: %v", err)
	}
}
