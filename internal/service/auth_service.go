package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dewelsk/vk-testing-backend/internal/config"
	"github.com/dewelsk/vk-testing-backend/internal/model"
	"github.com/dewelsk/vk-testing-backend/internal/repository"
)

// TokenType distinguishes candidate vs admin tokens.
type TokenType string

const (
	TokenTypeCandidate TokenType = "candidate"
	TokenTypeAdmin     TokenType = "admin"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType   TokenType `json:"token_type"`
	CandidateID uuid.UUID `json:"candidate_id,omitempty"` // Candidate only
	ProcedureID uuid.UUID `json:"procedure_id,omitempty"` // Candidate only
	AdminID     int       `json:"admin_id,omitempty"`     // Admin only
}

// AuthService handles login verification and JWT issuance.
type AuthService struct {
	cfg        *config.Config
	candidates CandidateStore
	admins     AdminStore
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, candidates CandidateStore, admins AdminStore) *AuthService {
	return &AuthService{cfg: cfg, candidates: candidates, admins: admins}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// LoginCandidate verifies candidate credentials and returns a signed token
// plus the candidate. Inactive candidates cannot log in.
func (s *AuthService) LoginCandidate(ctx context.Context, identifier, password string) (string, *model.Candidate, error) {
	candidate, err := s.candidates.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup candidate: %w", err)
	}
	if !candidate.Active {
		return "", nil, ErrAccountInactive
	}
	if err := s.CheckPassword(candidate.PasswordHash, password); err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(Claims{
		TokenType:   TokenTypeCandidate,
		CandidateID: candidate.ID,
		ProcedureID: candidate.ProcedureID,
	}, candidate.ID.String())
	if err != nil {
		return "", nil, err
	}
	return token, candidate, nil
}

// LoginAdmin verifies admin credentials and returns a signed token plus the
// admin account.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (string, *model.Admin, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup admin: %w", err)
	}
	if err := s.CheckPassword(admin.PasswordHash, password); err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(Claims{
		TokenType: TokenTypeAdmin,
		AdminID:   admin.ID,
	}, fmt.Sprintf("admin:%d", admin.ID))
	if err != nil {
		return "", nil, err
	}
	return token, admin, nil
}

// ValidateToken parses and verifies a JWT, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateToken(claims Claims, subject string) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
