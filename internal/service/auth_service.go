package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PritStyling132/Rentpal-sub001/internal/domain"
	"github.com/PritStyling132/Rentpal-sub001/internal/security"
)

// AuthService handles registration and login. It is the component that turns
// a credential into a verified identity; everything past this point trusts
// the token claims.
type AuthService struct {
	users    domain.UserRepository
	presence domain.PresenceRepository
	tokens   *security.TokenService
	hash     *security.PasswordHasher
}

func NewAuthService(users domain.UserRepository, presence domain.PresenceRepository, tokens *security.TokenService, hash *security.PasswordHasher) *AuthService {
	return &AuthService{
		users:    users,
		presence: presence,
		tokens:   tokens,
		hash:     hash,
	}
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

type LoginInput struct {
	Email    string
	Password string
}

type TokenResponse struct {
	AccessToken string
	TokenType   string
	User        *domain.User
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Email == "" || in.Password == "" {
		return nil, errors.New("email and password are required")
	}
	if in.Role == "" {
		in.Role = domain.RoleLeaser
	}
	if in.Role != domain.RoleOwner && in.Role != domain.RoleLeaser {
		return nil, fmt.Errorf("%w: role must be owner or leaser", domain.ErrInvalidInput)
	}

	if existing, err := s.users.GetByEmail(ctx, in.Email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if existing != nil {
		return nil, domain.ErrConflict
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:          in.Email,
		Name:           in.Name,
		HashedPassword: hashed,
		Role:           in.Role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, errors.New("incorrect email or password")
	}

	if err := s.hash.Verify(in.Password, user.HashedPassword); err != nil {
		return nil, errors.New("incorrect email or password")
	}

	if err := s.presence.Upsert(ctx, user.ID, true, time.Now()); err != nil {
		return nil, fmt.Errorf("set online: %w", err)
	}

	token, err := s.tokens.CreateForUser(security.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return s.presence.Upsert(ctx, userID, false, time.Now())
}
