package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/pkg/security"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccountDisabled    = errors.New("auth: account disabled")
	ErrInvalidToken       = errors.New("auth: invalid token")
)

// Account is the persisted identity the service authenticates against.
// The users package owns the storage; auth only needs this projection.
type Account struct {
	ID             uuid.UUID
	Name           string
	Email          string
	PasswordHash   string
	Role           Role
	Active         bool
	Verified       bool
	CongregationID *uuid.UUID
}

// AccountStore is implemented by the users repository
type AccountStore interface {
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (*Account, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Service issues and validates session tokens
type Service struct {
	store    AccountStore
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewService creates a new auth service
func NewService(store AccountStore, secret string, tokenTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

type sessionClaims struct {
	Role Role   `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Login verifies credentials and issues a session token.
// A successful login stamps last_login on the account.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	account, err := s.store.GetAccountByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil || !security.VerifyPassword(account.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if !account.Active {
		return nil, ErrAccountDisabled
	}

	now := time.Now()
	claims := sessionClaims{
		Role: account.Role,
		Name: account.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	if err := s.store.TouchLastLogin(ctx, account.ID, now); err != nil {
		s.logger.Warn("Failed to stamp last_login",
			zap.String("account_id", account.ID.String()), zap.Error(err))
	}

	s.logger.Info("Account signed in",
		zap.String("account_id", account.ID.String()),
		zap.String("role", string(account.Role)))

	return &LoginResponse{Token: token, Principal: principalFromAccount(account)}, nil
}

// ResolvePrincipal validates a token and loads the current identity.
// The principal reflects the account as stored now, not as it was at issue
// time, so a verification decision takes effect on the next request.
func (s *Service) ResolvePrincipal(ctx context.Context, tokenString string) (*Principal, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	account, err := s.store.GetAccountByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, ErrInvalidToken
	}
	if !account.Active {
		return nil, ErrAccountDisabled
	}

	principal := principalFromAccount(account)
	return &principal, nil
}

func principalFromAccount(a *Account) Principal {
	return Principal{
		UID:            a.ID,
		Name:           a.Name,
		Email:          a.Email,
		Role:           a.Role,
		Verified:       a.Verified,
		CongregationID: a.CongregationID,
	}
}
