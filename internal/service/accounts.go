package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"clinic-booking-api/internal/auth"
	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/store"
	"clinic-booking-api/internal/validation"
	"clinic-booking-api/internal/xerrors"
)

type RegisterInput struct {
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Role        model.Role  `json:"role"`
	Phone       *string     `json:"phone"`
	DateOfBirth *model.Date `json:"dateOfBirth"`
	Address     *string     `json:"address"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileInput struct {
	Name        *string     `json:"name"`
	Phone       *string     `json:"phone"`
	DateOfBirth *model.Date `json:"dateOfBirth"`
	Address     *string     `json:"address"`
}

// Session is returned by register and login.
type Session struct {
	User  model.PublicUser `json:"user"`
	Token string           `json:"token"`
}

// Profile is the caller's public record with their own appointments.
type Profile struct {
	model.PublicUser
	Appointments []model.Appointment `json:"appointments"`
}

// Accounts owns user records and issues bearer tokens.
type Accounts struct {
	users  UserStore
	appts  AppointmentStore
	hasher *auth.Hasher
	tokens *auth.Tokens
}

func NewAccounts(users UserStore, appts AppointmentStore, hasher *auth.Hasher, tokens *auth.Tokens) *Accounts {
	return &Accounts{users: users, appts: appts, hasher: hasher, tokens: tokens}
}

func (in *RegisterInput) validate() validation.Violations {
	v := validation.Violations{}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	validation.Required("name", in.Name, v)
	validation.Length("name", in.Name, 2, 255, v)
	validation.Required("email", in.Email, v)
	validation.Email("email", in.Email, v)
	validation.Required("password", in.Password, v)
	validation.Length("password", in.Password, 6, 0, v)
	validation.Check(len(in.Password) <= 72, "password", "too_long", v)
	if in.Role == "" {
		in.Role = model.RolePatient
	}
	validation.Check(in.Role.Valid(), "role", "invalid_role", v)
	if in.Phone != nil {
		validation.Length("phone", *in.Phone, 1, 20, v)
	}
	return v
}

func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if v := in.validate(); !v.Empty() {
		return nil, xerrors.Validation("Validation error", v)
	}

	if _, err := a.users.UserByEmail(ctx, in.Email); err == nil {
		return nil, xerrors.Conflict("User with this email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, xerrors.Internal(err)
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return nil, xerrors.Internal(err)
	}

	u := &model.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Phone:        in.Phone,
		DateOfBirth:  in.DateOfBirth,
		Address:      in.Address,
		IsActive:     true,
	}
	if err := a.users.CreateUser(ctx, u); err != nil {
		// unique index caught a concurrent registration
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, xerrors.Conflict("User with this email already exists")
		}
		return nil, xerrors.Internal(err)
	}
	return a.session(u)
}

func (a *Accounts) Login(ctx context.Context, in LoginInput) (*Session, error) {
	v := validation.Violations{}
	validation.Required("email", in.Email, v)
	validation.Required("password", in.Password, v)
	if !v.Empty() {
		return nil, xerrors.Validation("Validation error", v)
	}

	u, err := a.users.UserByEmail(ctx, strings.TrimSpace(in.Email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, xerrors.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, xerrors.Internal(err)
	}
	if !u.IsActive {
		return nil, xerrors.Unauthorized("Account is deactivated")
	}
	if !a.hasher.Check(u.PasswordHash, in.Password) {
		return nil, xerrors.Unauthorized("Invalid email or password")
	}
	return a.session(u)
}

func (a *Accounts) session(u *model.User) (*Session, error) {
	tok, err := a.tokens.Issue(u)
	if err != nil {
		return nil, xerrors.Internal(err)
	}
	return &Session{User: u.Public(), Token: tok}, nil
}

// VerifyToken decodes a bearer token into its claims.
func (a *Accounts) VerifyToken(raw string) (*auth.Claims, error) {
	c, err := a.tokens.Parse(raw)
	if err != nil {
		return nil, xerrors.Unauthorized("Invalid token")
	}
	return c, nil
}

func (a *Accounts) Profile(ctx context.Context, userID string) (*Profile, error) {
	u, err := a.userByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	appts, err := a.appts.ListAppointments(ctx, u.ID)
	if err != nil {
		return nil, xerrors.Internal(err)
	}
	return &Profile{PublicUser: u.Public(), Appointments: appts}, nil
}

// UpdateProfile merges name, phone, date of birth and address. Empty
// strings leave a field unchanged.
func (a *Accounts) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.PublicUser, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, xerrors.NotFound("User not found")
	}
	p := model.ProfilePatch{
		Name:        nonEmpty(in.Name),
		Phone:       nonEmpty(in.Phone),
		DateOfBirth: in.DateOfBirth,
		Address:     nonEmpty(in.Address),
	}
	v := validation.Violations{}
	if p.Name != nil {
		validation.Length("name", strings.TrimSpace(*p.Name), 2, 255, v)
	}
	if p.Phone != nil {
		validation.Length("phone", *p.Phone, 1, 20, v)
	}
	if !v.Empty() {
		return nil, xerrors.Validation("Validation error", v)
	}

	u, err := a.users.UpdateProfile(ctx, userID, p)
	if errors.Is(err, store.ErrNotFound) {
		return nil, xerrors.NotFound("User not found")
	}
	if err != nil {
		return nil, xerrors.Internal(err)
	}
	pub := u.Public()
	return &pub, nil
}

func (a *Accounts) userByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, xerrors.NotFound("User not found")
	}
	u, err := a.users.UserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, xerrors.NotFound("User not found")
	}
	if err != nil {
		return nil, xerrors.Internal(err)
	}
	return u, nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
