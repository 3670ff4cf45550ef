package user

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleSuperadmin = "Superadmin"
	RoleCustomer   = "cliente"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
)

// User is a stored account. PasswordHash never leaves the process.
type User struct {
	ID              string    `json:"_id"`
	FullName        string    `json:"nombreCompleto"`
	PaternalSurname string    `json:"apellidoPaterno"`
	MaternalSurname string    `json:"apellidoMaterno"`
	Email           string    `json:"correo"`
	PasswordHash    string    `json:"-"`
	Role            string    `json:"rol"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type RegisterInput struct {
	FullName        string `json:"nombreCompleto" validate:"required"`
	PaternalSurname string `json:"apellidoPaterno" validate:"required"`
	MaternalSurname string `json:"apellidoMaterno" validate:"required"`
	Email           string `json:"correo" validate:"required"`
	Password        string `json:"contrasena" validate:"required"`
	Role            string `json:"rol"`
}

func (in *RegisterInput) normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.PaternalSurname = strings.TrimSpace(in.PaternalSurname)
	in.MaternalSurname = strings.TrimSpace(in.MaternalSurname)
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.TrimSpace(in.Role)
}

// UpdateInput carries a partial update. Nil or blank fields are left untouched.
type UpdateInput struct {
	FullName        *string `json:"nombreCompleto"`
	PaternalSurname *string `json:"apellidoPaterno"`
	MaternalSurname *string `json:"apellidoMaterno"`
	Email           *string `json:"correo"`
	Password        *string `json:"contrasena"`
	Role            *string `json:"rol"`
}

// Changes is what a repository applies. PasswordHash is already hashed.
type Changes struct {
	FullName        *string
	PaternalSurname *string
	MaternalSurname *string
	Email           *string
	PasswordHash    *string
	Role            *string
}

func (c Changes) apply(u *User) {
	if c.FullName != nil {
		u.FullName = *c.FullName
	}
	if c.PaternalSurname != nil {
		u.PaternalSurname = *c.PaternalSurname
	}
	if c.MaternalSurname != nil {
		u.MaternalSurname = *c.MaternalSurname
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.PasswordHash != nil {
		u.PasswordHash = *c.PasswordHash
	}
	if c.Role != nil {
		u.Role = *c.Role
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
