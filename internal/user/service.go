package user

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"shopapi/internal/platform/crypto"

	"go.uber.org/zap"
)

type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// equalizeTiming burns one bcrypt comparison so that unknown emails take as
// long to reject as wrong passwords.
func equalizeTiming(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = crypto.HashPassword("timing-equalizer")
	})
	crypto.VerifyPassword(dummyHash, password)
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.normalize()
	if in.FullName == "" || in.PaternalSurname == "" || in.MaternalSurname == "" || in.Email == "" || in.Password == "" {
		return User{}, fmt.Errorf("%w: name fields, email and password are required", ErrInvalidInput)
	}

	_, err := s.repo.GetByEmail(ctx, in.Email)
	if err == nil {
		return User{}, ErrDuplicateEmail
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("lookup email: %w", err)
	}

	hashedPassword, err := hashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	role := in.Role
	if role == "" {
		role = RoleCustomer
	}

	newUser := &User{
		FullName:        in.FullName,
		PaternalSurname: in.PaternalSurname,
		MaternalSurname: in.MaternalSurname,
		Email:           in.Email,
		PasswordHash:    hashedPassword,
		Role:            role,
	}
	// The store's unique index settles races the lookup above cannot see.
	if err := s.repo.Create(ctx, newUser); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", newUser.ID), zap.String("role", newUser.Role))
	return *newUser, nil
}

// Authenticate returns ErrInvalidCredentials for an unknown email and for a
// wrong password alike.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			equalizeTiming(password)
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("lookup email: %w", err)
	}

	if !crypto.VerifyPassword(u.PasswordHash, password) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

func (s *Service) UpdateByID(ctx context.Context, id string, in UpdateInput) (User, error) {
	changes := Changes{
		FullName:        trimmed(in.FullName),
		PaternalSurname: trimmed(in.PaternalSurname),
		MaternalSurname: trimmed(in.MaternalSurname),
		Email:           trimmed(in.Email),
		Role:            trimmed(in.Role),
	}

	if in.Password != nil && *in.Password != "" {
		hashedPassword, err := hashPassword(*in.Password)
		if err != nil {
			return User{}, err
		}
		changes.PasswordHash = &hashedPassword
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return User{}, err
	}

	s.logger.Info("user updated", zap.String("user_id", updated.ID), zap.Bool("password_changed", changes.PasswordHash != nil))
	return updated, nil
}

func (s *Service) DeleteByID(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func hashPassword(password string) (string, error) {
	hashedPassword, err := crypto.HashPassword(password)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password too long", ErrInvalidInput)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hashedPassword, nil
}
