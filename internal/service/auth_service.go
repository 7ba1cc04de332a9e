package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storefront/internal/auth"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const bcryptCost = 10

// SessionMeta describes the client that opened a session.
type SessionMeta struct {
	IPAddress string
	UserAgent string
}

// AuthResult is returned by a successful sign-in.
type AuthResult struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	ExpiresAt    time.Time      `json:"expiresAt"`
	User         *model.User    `json:"user"`
	Session      *model.Session `json:"-"`
}

// AuthService handles authentication operations.
type AuthService interface {
	SignUp(ctx context.Context, email, password, name string) (*model.User, error)
	SignIn(ctx context.Context, email, password string, meta SessionMeta) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	SignOut(ctx context.Context, sessionID uuid.UUID, refreshToken string) error
}

type authService struct {
	users      repository.UserRepository
	accounts   repository.AccountRepository
	sessions   repository.SessionRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	sessionTTL time.Duration,
) AuthService {
	if sessionTTL <= 0 {
		sessionTTL = auth.RefreshTokenExpiry
	}
	return &authService{
		users:      users,
		accounts:   accounts,
		sessions:   sessions,
		jwtService: jwtService,
		tokenStore: tokenStore,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// SignUp creates a user with the default role and a credential account.
func (s *authService) SignUp(ctx context.Context, email, password, name string) (*model.User, error) {
	email = normalizeEmail(email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:    uuid.New(),
		Name:  strings.TrimSpace(name),
		Email: email,
		Role:  model.RoleUser,
	}
	account := &model.Account{
		ProviderID:   model.ProviderCredential,
		PasswordHash: hashed,
	}
	if err := s.accounts.CreateUserWithCredential(ctx, user, account); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// SignIn verifies credentials, opens a session and issues tokens bound to it.
func (s *authService) SignIn(ctx context.Context, email, password string, meta SessionMeta) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	account, err := s.accounts.FindCredential(ctx, user.ID)
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	session := &model.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.sessionTTL),
		IPAddress: meta.IPAddress,
		UserAgent: truncate(meta.UserAgent, 512),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user, session.ID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user, session.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	stored := auth.RefreshToken{UserID: user.ID.String(), SessionID: session.ID.String()}
	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, stored, auth.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    session.ExpiresAt,
		User:         user,
		Session:      session,
	}, nil
}

// RefreshToken validates a refresh token and returns a new access token for
// the same session.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil || claims.ID == "" {
		return "", apperrors.ErrInvalidRefreshToken
	}

	stored, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", apperrors.ErrInvalidRefreshToken
	}
	if stored.UserID != claims.UserID || stored.SessionID != claims.SessionID {
		return "", apperrors.ErrInvalidRefreshToken
	}

	sessionID, err := claims.SessionUUID()
	if err != nil {
		return "", apperrors.ErrInvalidRefreshToken
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil || session.Expired(s.now()) {
		return "", apperrors.ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return "", apperrors.ErrInvalidRefreshToken
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user, session.ID)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// SignOut deletes the session and, when given, its refresh token.
func (s *authService) SignOut(ctx context.Context, sessionID uuid.UUID, refreshToken string) error {
	if refreshToken != "" {
		tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
		if err != nil {
			return apperrors.ErrInvalidRefreshToken
		}
		if err := s.tokenStore.DeleteRefreshToken(ctx, tokenID); err != nil {
			return fmt.Errorf("delete refresh token: %w", err)
		}
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
