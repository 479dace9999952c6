package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"peeps/internal/auth"
	"peeps/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newAccountService(t *testing.T, users *userRepoStub) (*AccountService, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret")
	require.NoError(t, err)
	tokens = tokens.WithClock(func() time.Time { return fixedNow })
	return NewAccountService(users, auth.NewPasswordHasher(bcrypt.MinCost), tokens, auth.LoginTokenTTL), tokens
}

func validSignup() models.SignupRequest {
	return models.SignupRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Username: "alice",
		Password: "wonderland",
	}
}

func TestAccountServiceSignupHashesPassword(t *testing.T) {
	var stored *models.User
	users := noopUserRepo()
	users.createFn = func(_ context.Context, u *models.User) error {
		stored = u
		return nil
	}
	svc, _ := newAccountService(t, users)

	user, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "wonderland", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("wonderland")))
}

func TestAccountServiceSignupDuplicateUsername(t *testing.T) {
	users := noopUserRepo()
	users.getCredentialsFn = func(context.Context, string) (*models.User, error) {
		return &models.User{Username: "alice"}, nil
	}
	users.createFn = func(context.Context, *models.User) error {
		t.Fatal("create must not be called for a taken username")
		return nil
	}
	svc, _ := newAccountService(t, users)

	_, err := svc.Signup(context.Background(), validSignup())
	assertCode(t, err, models.CodeConflict)
}

func TestAccountServiceSignupValidation(t *testing.T) {
	cases := map[string]func(*models.SignupRequest){
		"short password":    func(r *models.SignupRequest) { r.Password = "abc" },
		"oversize password": func(r *models.SignupRequest) { r.Password = strings.Repeat("x", 73) },
		"bad email":         func(r *models.SignupRequest) { r.Email = "nope" },
		"bad username":      func(r *models.SignupRequest) { r.Username = "a b" },
		"blank name":        func(r *models.SignupRequest) { r.Name = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _ := newAccountService(t, noopUserRepo())
			req := validSignup()
			mutate(&req)
			_, err := svc.Signup(context.Background(), req)
			assertCode(t, err, models.CodeValidation)
		})
	}
}

func TestAccountServiceLogin(t *testing.T) {
	hash, err := auth.NewPasswordHasher(bcrypt.MinCost).Hash("wonderland")
	require.NoError(t, err)

	users := noopUserRepo()
	users.getCredentialsFn = func(_ context.Context, username string) (*models.User, error) {
		if username != "alice" {
			return nil, nil
		}
		return &models.User{ID: uuid.New(), Username: "alice", PasswordHash: hash}, nil
	}
	svc, tokens := newAccountService(t, users)

	t.Run("success", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), "alice", "wonderland")
		require.NoError(t, err)
		assert.Equal(t, "bearer", resp.TokenType)

		sub, err := tokens.Validate(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", sub)

		expired := tokens.WithClock(func() time.Time { return fixedNow.Add(auth.LoginTokenTTL + time.Second) })
		_, err = expired.Validate(resp.AccessToken)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "alice", "looking-glass")
		assertCode(t, err, models.CodeAuthentication)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "mallory", "wonderland")
		assertCode(t, err, models.CodeAuthentication)
	})
}

func TestAccountServiceLoginRepositoryFailure(t *testing.T) {
	users := noopUserRepo()
	boom := errors.New("connection reset")
	users.getCredentialsFn = func(context.Context, string) (*models.User, error) {
		return nil, models.NewInternalError(boom)
	}
	svc, _ := newAccountService(t, users)

	_, err := svc.Login(context.Background(), "alice", "wonderland")
	assertCode(t, err, models.CodeInternal)
	assert.ErrorIs(t, err, boom)
}

func TestAccountServiceUpdateUser(t *testing.T) {
	id := uuid.New()
	var got models.UpdateUserRequest
	users := noopUserRepo()
	users.updateFn = func(_ context.Context, gotID uuid.UUID, changes models.UpdateUserRequest) (*models.User, error) {
		assert.Equal(t, id, gotID)
		got = changes
		return &models.User{ID: id, Name: *changes.Name}, nil
	}
	svc, _ := newAccountService(t, users)

	name := "Alice Liddell"
	user, err := svc.UpdateUser(context.Background(), id, models.UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", user.Name)
	assert.Nil(t, got.Email)
	assert.Nil(t, got.Username)
}

func TestAccountServiceUpdateUserRejectsEmptyPatch(t *testing.T) {
	users := noopUserRepo()
	users.updateFn = func(context.Context, uuid.UUID, models.UpdateUserRequest) (*models.User, error) {
		t.Fatal("update must not reach the repository")
		return nil, nil
	}
	svc, _ := newAccountService(t, users)

	_, err := svc.UpdateUser(context.Background(), uuid.New(), models.UpdateUserRequest{})
	assertCode(t, err, models.CodeValidation)

	bad := "not-an-email"
	_, err = svc.UpdateUser(context.Background(), uuid.New(), models.UpdateUserRequest{Email: &bad})
	assertCode(t, err, models.CodeValidation)
}

func TestAccountServiceDeleteUserNotFound(t *testing.T) {
	id := uuid.New()
	users := noopUserRepo()
	users.deleteFn = func(context.Context, uuid.UUID) error {
		return models.NewNotFoundError("User", id)
	}
	svc, _ := newAccountService(t, users)

	err := svc.DeleteUser(context.Background(), id)
	assertCode(t, err, models.CodeNotFound)
}
