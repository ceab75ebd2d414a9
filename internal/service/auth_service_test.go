package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ironlog/fitness-app/internal/domain"
	"ironlog/fitness-app/internal/repository"
)

type fakeUserRepo struct {
	byEmail map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if _, exists := r.byEmail[user.Email]; exists {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	stored := *user
	stored.ID = primitive.NewObjectID()
	r.byEmail[user.Email] = &stored
	return stored.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

const testJWTSecret = "test-secret"

func TestRegister(t *testing.T) {
	t.Run("success strips the password hash", func(t *testing.T) {
		svc := NewAuthService(newFakeUserRepo(), testJWTSecret, time.Hour)
		user, err := svc.Register(context.Background(), "Alice", "alice@example.com", "s3cretpass")
		require.NoError(t, err)
		assert.False(t, user.ID.IsZero())
		assert.Empty(t, user.PasswordHash)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := NewAuthService(newFakeUserRepo(), testJWTSecret, time.Hour)
		_, err := svc.Register(context.Background(), "Alice", "alice@example.com", "s3cretpass")
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), "Impostor", "alice@example.com", "otherpass1")
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("empty fields rejected", func(t *testing.T) {
		svc := NewAuthService(newFakeUserRepo(), testJWTSecret, time.Hour)
		_, err := svc.Register(context.Background(), "", "alice@example.com", "s3cretpass")
		assert.Error(t, err)
	})
}

func TestLogin(t *testing.T) {
	setup := func(t *testing.T) AuthService {
		t.Helper()
		svc := NewAuthService(newFakeUserRepo(), testJWTSecret, time.Hour)
		_, err := svc.Register(context.Background(), "Alice", "alice@example.com", "s3cretpass")
		require.NoError(t, err)
		return svc
	}

	t.Run("valid credentials yield a usable token", func(t *testing.T) {
		svc := setup(t)
		token, user, err := svc.Login(context.Background(), "alice@example.com", "s3cretpass")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Empty(t, user.PasswordHash)

		claims := &jwtClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(testJWTSecret), nil
		})
		require.NoError(t, err)
		assert.True(t, parsed.Valid)
		assert.Equal(t, user.ID.Hex(), claims.UserID)
		assert.Equal(t, "ironlog", claims.Issuer)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc := setup(t)
		_, _, err := svc.Login(context.Background(), "alice@example.com", "wrongpass1")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("unknown email looks identical to wrong password", func(t *testing.T) {
		svc := setup(t)
		_, _, err := svc.Login(context.Background(), "nobody@example.com", "s3cretpass")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})
}
