// Package userservice manages business logic layer of users.
package userservice

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/pkg/errorspkg"
	"github.com/go-petr/ledger-bank/pkg/passpkg"
)

// Repo provides data access layer interface needed by user service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package userservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error)
	Get(ctx context.Context, username string) (domain.User, error)
}

// Service facilitates user service layer logic.
type Service struct {
	repo Repo
}

// New return user service struct to manage user bussines logic.
func New(ur Repo) *Service {
	return &Service{
		repo: ur,
	}
}

// NewUserWihtoutPassword returns user with removed sensitive data.
func NewUserWihtoutPassword(u domain.User) domain.UserWihtoutPassword {
	return domain.UserWihtoutPassword{
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Create registers a user with the USER role and returns it.
func (s *Service) Create(ctx context.Context, username, password, fullname, email string) (domain.UserWihtoutPassword, error) {
	return s.create(ctx, domain.RoleUser, username, password, fullname, email)
}

func (s *Service) create(ctx context.Context, role domain.Role, username, password, fullname, email string) (domain.UserWihtoutPassword, error) {
	l := zerolog.Ctx(ctx)

	var result domain.UserWihtoutPassword

	hashedPassword, err := passpkg.Hash(password)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	arg := domain.CreateUserParams{
		Username:       username,
		HashedPassword: hashedPassword,
		FullName:       fullname,
		Email:          email,
		Role:           role,
	}

	gotUser, err := s.repo.Create(ctx, arg)
	if err != nil {
		return result, err
	}

	result = NewUserWihtoutPassword(gotUser)

	return result, nil
}

// CheckPassword checks if the password is valid for the given username.
func (s *Service) CheckPassword(ctx context.Context, username, pass string) (domain.UserWihtoutPassword, error) {
	l := zerolog.Ctx(ctx)

	var response domain.UserWihtoutPassword

	gotUser, err := s.repo.Get(ctx, username)
	if err != nil {
		return response, err
	}

	err = passpkg.Check(pass, gotUser.HashedPassword)
	if err != nil {
		l.Warn().Err(err).Send()
		return response, domain.ErrWrongPassword
	}

	response = NewUserWihtoutPassword(gotUser)

	return response, nil
}

// Get returns the user with the given username without password data.
func (s *Service) Get(ctx context.Context, username string) (domain.UserWihtoutPassword, error) {
	u, err := s.repo.Get(ctx, username)
	if err != nil {
		return domain.UserWihtoutPassword{}, err
	}

	return NewUserWihtoutPassword(u), nil
}

// AdminParams holds the credentials of the bootstrap administrator.
type AdminParams struct {
	Username string
	Password string
	Email    string
}

// EnsureAdmin creates the administrator unless a user with that username already exists.
//
// An empty username disables the bootstrap.
func (s *Service) EnsureAdmin(ctx context.Context, arg AdminParams) error {
	l := zerolog.Ctx(ctx)

	if arg.Username == "" {
		return nil
	}

	existing, err := s.repo.Get(ctx, arg.Username)
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			l.Warn().Str("username", arg.Username).Msg("bootstrap admin username is taken by a non admin user")
		}

		return nil
	}

	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	_, err = s.create(ctx, domain.RoleAdmin, arg.Username, arg.Password, arg.Username, arg.Email)
	if errors.Is(err, domain.ErrUsernameAlreadyExists) {
		return nil
	}

	if err != nil {
		return err
	}

	l.Info().Str("username", arg.Username).Msg("admin user created")

	return nil
}
