package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/actuallystonmai/users-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, first_name, second_name, age, city`

func scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(&user.ID, &user.FirstName, &user.SecondName, &user.Age, &user.City)
	return user, err
}

// List all users ordered by id
func (r *Repository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// Get single user
func (r *Repository) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user id=%d: %w", id, err)
	}
	return user, nil
}

// Insert user, id comes from the sequence
func (r *Repository) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`INSERT INTO users (first_name, second_name, age, city)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		u.FirstName, u.SecondName, u.Age, u.City,
	))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// Replace every field except id
func (r *Repository) Update(ctx context.Context, id int64, u domain.User) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users
		 SET first_name = $2, second_name = $3, age = $4, city = $5
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, u.FirstName, u.SecondName, u.Age, u.City,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user id=%d: %w", id, err)
	}
	return user, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user id=%d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
