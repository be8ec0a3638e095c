package service

import (
	"context"
	"fmt"
	"log"

	"github.com/actuallystonmai/users-service/internal/domain"
)

// UserStore is implemented by the in-memory store and the postgres
// repository.
type UserStore interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	Update(ctx context.Context, id int64, u domain.User) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// UserCache is optional; cache errors never fail a request.
type UserCache interface {
	GetUser(ctx context.Context, id int64) (*domain.User, bool, error)
	UserVersion(ctx context.Context, id int64) (int64, error)
	SetUser(ctx context.Context, user *domain.User, version int64) error
	GetList(ctx context.Context) ([]domain.User, bool, error)
	ListVersion(ctx context.Context) (int64, error)
	SetList(ctx context.Context, users []domain.User, version int64) error
	Invalidate(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// Validator turns a request body into a user or a *domain.ValidationError.
type Validator interface {
	Create(in domain.UserInput) (domain.User, error)
	Update(in domain.UserInput) (domain.User, error)
}

type Service struct {
	store     UserStore
	cache     UserCache
	validator Validator
}

// NewService wires the service. cache may be nil.
func NewService(store UserStore, cache UserCache, validator Validator) *Service {
	return &Service{
		store:     store,
		cache:     cache,
		validator: validator,
	}
}

// ListUsers is cache-aside. The list version is read before the store so
// a write that lands in between makes the fill a no-op.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	fill := false
	var version int64
	if s.cache != nil {
		cached, found, err := s.cache.GetList(ctx)
		if err != nil {
			log.Printf("[service] cache get list error: %v", err)
		}
		if found {
			return nonNil(cached), nil
		}
		if version, err = s.cache.ListVersion(ctx); err != nil {
			log.Printf("[service] cache list version error: %v", err)
		} else {
			fill = true
		}
	}

	users, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users = nonNil(users)

	if fill {
		if err := s.cache.SetList(ctx, users, version); err != nil {
			log.Printf("[service] cache set list error: %v", err)
		}
	}
	return users, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	fill := false
	var version int64
	if s.cache != nil {
		cached, found, err := s.cache.GetUser(ctx, id)
		if err != nil {
			log.Printf("[service] cache get error for user %d: %v", id, err)
		}
		if found {
			return cached, nil
		}
		if version, err = s.cache.UserVersion(ctx, id); err != nil {
			log.Printf("[service] cache version error for user %d: %v", id, err)
		} else {
			fill = true
		}
	}

	user, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if fill {
		if err := s.cache.SetUser(ctx, user, version); err != nil {
			log.Printf("[service] cache set error for user %d: %v", id, err)
		}
	}
	return user, nil
}

// CreateUser validates in against the create schema and stores it.
func (s *Service) CreateUser(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	u, err := s.validator.Create(in)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.invalidate(ctx, user.ID)
	return user, nil
}

// UpdateUser validates in against the update schema before looking up id,
// so an invalid body is reported even for an unknown id.
func (s *Service) UpdateUser(ctx context.Context, id int64, in domain.UserInput) (*domain.User, error) {
	u, err := s.validator.Update(in)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// Ready reports whether the store and the cache, if any, answer a ping.
func (s *Service) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.Printf("[service] cache invalidation error for user %d: %v", id, err)
	}
}

func nonNil(users []domain.User) []domain.User {
	if users == nil {
		return []domain.User{}
	}
	return users
}
