package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dewelsk/vk-testing-backend/internal/config"
	"github.com/dewelsk/vk-testing-backend/internal/model"
	"github.com/dewelsk/vk-testing-backend/internal/repository"
)

type fakeAdminStore struct {
	admins map[string]*model.Admin
}

func (f *fakeAdminStore) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	a, ok := f.admins[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func newAuthEnv(t *testing.T) (*AuthService, *model.Candidate) {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	candidate := &model.Candidate{
		ID:           uuid.New(),
		ProcedureID:  uuid.New(),
		Identifier:   "candidate1",
		PasswordHash: string(hash),
		Active:       true,
	}

	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	candidates := &fakeCandidateStore{candidates: []model.Candidate{*candidate}}
	admins := &fakeAdminStore{admins: map[string]*model.Admin{
		"admin@example.com": {ID: 1, Email: "admin@example.com", PasswordHash: string(adminHash)},
	}}

	return NewAuthService(cfg, candidates, admins), candidate
}

func TestCandidateLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials issue candidate token", func(t *testing.T) {
		svc, candidate := newAuthEnv(t)

		token, got, err := svc.LoginCandidate(ctx, "candidate1", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, candidate.ID, got.ID)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, TokenTypeCandidate, claims.TokenType)
		assert.Equal(t, candidate.ID, claims.CandidateID)
		assert.Equal(t, candidate.ProcedureID, claims.ProcedureID)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		svc, _ := newAuthEnv(t)
		_, _, err := svc.LoginCandidate(ctx, "candidate1", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown identifier rejected without leaking existence", func(t *testing.T) {
		svc, _ := newAuthEnv(t)
		_, _, err := svc.LoginCandidate(ctx, "nobody", "correct-horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive candidate rejected", func(t *testing.T) {
		svc, _ := newAuthEnv(t)
		store := svc.candidates.(*fakeCandidateStore)
		store.candidates[0].Active = false

		_, _, err := svc.LoginCandidate(ctx, "candidate1", "correct-horse")
		assert.ErrorIs(t, err, ErrAccountInactive)
	})
}

func TestAdminLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials issue admin token", func(t *testing.T) {
		svc, _ := newAuthEnv(t)

		token, admin, err := svc.LoginAdmin(ctx, "admin@example.com", "admin-pass")
		require.NoError(t, err)
		assert.Equal(t, 1, admin.ID)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, TokenTypeAdmin, claims.TokenType)
		assert.Equal(t, 1, claims.AdminID)
	})

	t.Run("candidate token is not an admin token", func(t *testing.T) {
		svc, _ := newAuthEnv(t)

		token, _, err := svc.LoginCandidate(ctx, "candidate1", "correct-horse")
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.NotEqual(t, TokenTypeAdmin, claims.TokenType)
	})

	t.Run("tampered token rejected", func(t *testing.T) {
		svc, _ := newAuthEnv(t)

		token, _, err := svc.LoginAdmin(ctx, "admin@example.com", "admin-pass")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token + "x")
		assert.Error(t, err)
	})
}
