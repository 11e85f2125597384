package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
)

// UserService handles registration and login. Passwords are argon2id
// hashed; a successful login yields a bearer token for both the REST API
// and websocket sessions.
type UserService struct {
	repo   domain.UserRepository
	tokens *TokenService
	log    *slog.Logger
}

func NewUserService(log *slog.Logger, repo domain.UserRepository, tokens *TokenService) *UserService {
	return &UserService{
		log:    log,
		repo:   repo,
		tokens: tokens,
	}
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.repo.CreateUser(ctx, username, email, hash)
	if err != nil {
		s.log.ErrorContext(ctx, "user - register - create failed", "username", username, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "user - register - success", "username", username, "user_id", user.ID)
	return user, nil
}

// Login verifies the credentials and issues a token. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil || user == nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, domain.ErrInvalidCredentials
	}
	match, err := ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", nil, domain.ErrInvalidCredentials
	}
	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		s.log.ErrorContext(ctx, "user - login - token generation failed", "user_id", user.ID, "err", err)
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	s.log.InfoContext(ctx, "user - login - success", "username", username, "user_id", user.ID)
	return token, user, nil
}
