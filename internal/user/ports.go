package user

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=user

// Repository persists users. Create and Update report a clash on the unique
// email as ErrDuplicateEmail; lookups of absent ids report ErrNotFound.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id string, changes Changes) (User, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
