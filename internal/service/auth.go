package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/dropship-backend/internal/domain"
	"github.com/avc/dropship-backend/internal/repository/postgres"
	"github.com/avc/dropship-backend/internal/utils/jwt"
	"github.com/avc/dropship-backend/internal/utils/password"
)

// AuthService аутентифицирует операторов бэк-офиса
type AuthService struct {
	userRepo       domain.UserRepository
	passwordHasher password.Hasher
	jwtManager     *jwt.Manager
	minPasswordLen int
}

// NewAuthService создает новый AuthService
func NewAuthService(
	userRepo domain.UserRepository,
	passwordHasher password.Hasher,
	jwtManager *jwt.Manager,
	minPasswordLen int,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		passwordHasher: passwordHasher,
		jwtManager:     jwtManager,
		minPasswordLen: minPasswordLen,
	}
}

// Register регистрирует нового оператора и возвращает токен
func (s *AuthService) Register(ctx context.Context, login, userPassword string) (string, error) {
	if login == "" || len(userPassword) < s.minPasswordLen {
		return "", ErrInvalidInput
	}

	hash, err := s.passwordHasher.Hash(userPassword)
	if err != nil {
		return "", fmt.Errorf("auth service: failed to hash password for user %q: %w", login, err)
	}

	user, err := s.userRepo.CreateUser(ctx, login, hash)
	if err != nil {
		if errors.Is(err, postgres.ErrUserExists) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("auth service: failed to register user %q: %w", login, err)
	}

	token, err := s.jwtManager.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("auth service: failed to generate token for user %d: %w", user.ID, err)
	}

	return token, nil
}

// Login аутентифицирует оператора и возвращает токен
func (s *AuthService) Login(ctx context.Context, login, userPassword string) (string, error) {
	if login == "" || userPassword == "" {
		return "", ErrInvalidInput
	}

	user, err := s.userRepo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("auth service: failed to get user %q: %w", login, err)
	}

	if err := s.passwordHasher.Check(user.PasswordHash, userPassword); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.jwtManager.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("auth service: failed to generate token for user %d: %w", user.ID, err)
	}

	return token, nil
}
