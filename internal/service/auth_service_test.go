package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/PritStyling132/Rentpal-sub001/internal/domain"
	"github.com/PritStyling132/Rentpal-sub001/internal/security"
	"github.com/PritStyling132/Rentpal-sub001/internal/service"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newAuthService(users *MockUserRepo, presence *MockPresenceRepo) *service.AuthService {
	tokenSvc := security.NewTokenService("secret", time.Hour)
	hasher := security.NewPasswordHasher(4) // low cost for tests
	return service.NewAuthService(users, presence, tokenSvc, hasher)
}

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := newAuthService(users, new(MockPresenceRepo))

		users.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, nil)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "new@example.com" && u.Role == domain.RoleLeaser && u.HashedPassword != "Password1!"
		})).Return(nil)

		user, err := svc.Register(context.Background(), service.RegisterInput{
			Email:    "new@example.com",
			Name:     "New User",
			Password: "Password1!",
		})
		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.Equal(t, "new@example.com", user.Email)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := newAuthService(users, new(MockPresenceRepo))

		users.On("GetByEmail", mock.Anything, "existing@example.com").Return(&domain.User{Email: "existing@example.com"}, nil)

		user, err := svc.Register(context.Background(), service.RegisterInput{
			Email:    "existing@example.com",
			Password: "Password1!",
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Nil(t, user)
	})

	t.Run("AdminRoleRejected", func(t *testing.T) {
		svc := newAuthService(new(MockUserRepo), new(MockPresenceRepo))

		_, err := svc.Register(context.Background(), service.RegisterInput{
			Email:    "admin@example.com",
			Password: "Password1!",
			Role:     domain.RoleAdmin,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestLogin(t *testing.T) {
	hasher := security.NewPasswordHasher(4)
	hashed, _ := hasher.Hash("Password1!")
	stored := &domain.User{ID: 42, Email: "user@example.com", HashedPassword: hashed, Role: domain.RoleOwner}

	t.Run("Success", func(t *testing.T) {
		users := new(MockUserRepo)
		presence := new(MockPresenceRepo)
		svc := newAuthService(users, presence)

		users.On("GetByEmail", mock.Anything, "user@example.com").Return(stored, nil)
		presence.On("Upsert", mock.Anything, int64(42), true, mock.Anything).Return(nil)

		resp, err := svc.Login(context.Background(), service.LoginInput{
			Email:    "user@example.com",
			Password: "Password1!",
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "bearer", resp.TokenType)
		presence.AssertExpectations(t)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := newAuthService(users, new(MockPresenceRepo))

		users.On("GetByEmail", mock.Anything, "user@example.com").Return(stored, nil)

		_, err := svc.Login(context.Background(), service.LoginInput{
			Email:    "user@example.com",
			Password: "wrong",
		})
		assert.Error(t, err)
	})
}
