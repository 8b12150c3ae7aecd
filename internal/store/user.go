package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"clinic-booking-api/internal/model"
)

const userColumns = `id, name, email, password_hash, role, phone, date_of_birth, address, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	var dob *time.Time
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.Phone, &dob, &u.Address, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if dob != nil {
		d := model.NewDate(*dob)
		u.DateOfBirth = &d
	}
	return u, nil
}

func dateArg(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, phone, date_of_birth, address, is_active)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Phone, dateArg(u.DateOfBirth), u.Address, u.IsActive,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if c, ok := uniqueViolation(err); ok && c == usersEmailKey {
		return ErrDuplicateEmail
	}
	return err
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// UpdateProfile writes the non-nil fields of p. Role, email and password
// are not reachable through this path.
func (s *Store) UpdateProfile(ctx context.Context, id string, p model.ProfilePatch) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`UPDATE users
		 SET name = COALESCE($2, name),
		     phone = COALESCE($3, phone),
		     date_of_birth = COALESCE($4, date_of_birth),
		     address = COALESCE($5, address),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, p.Name, p.Phone, dateArg(p.DateOfBirth), p.Address))
}
