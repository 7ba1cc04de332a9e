package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	apperrors "storefront/internal/errors"
	"storefront/internal/model"
)

const claimsKey = "claims"

// SessionCookie is the cookie that carries the access token for browser clients.
const SessionCookie = "session_token"

// SessionFinder loads session rows.
type SessionFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
}

// UserFinder loads user rows.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Gate resolves the caller of a request and enforces role checks.
type Gate struct {
	jwt      *JWTService
	sessions SessionFinder
	users    UserFinder
	now      func() time.Time
}

// NewGate creates a gate that validates tokens with jwtService and checks them
// against live session and user rows.
func NewGate(jwtService *JWTService, sessions SessionFinder, users UserFinder) *Gate {
	return &Gate{
		jwt:      jwtService,
		sessions: sessions,
		users:    users,
		now:      time.Now,
	}
}

// Authenticate rejects requests without a live session with 401 and stores the
// resolved Principal on the context.
func (g *Gate) Authenticate() echo.MiddlewareFunc {
	parse := echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + SessionCookie,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return g.jwt.ValidateAccessToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperrors.MapErrorToHTTP(apperrors.ErrUnauthenticated).Echo()
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return parse(func(c echo.Context) error {
			claims, ok := c.Get(claimsKey).(*Claims)
			if !ok {
				return apperrors.MapErrorToHTTP(apperrors.ErrUnauthenticated).Echo()
			}
			principal, err := g.Resolve(c.Request().Context(), claims)
			if err != nil {
				return apperrors.MapErrorToHTTP(err).Echo()
			}
			SetPrincipal(c, principal)
			return next(c)
		})
	}
}

// Resolve turns validated claims into a Principal. The session must still exist
// and the role is read from the user row, so revocations and role changes apply
// to tokens already issued.
func (g *Gate) Resolve(ctx context.Context, claims *Claims) (*Principal, error) {
	sessionID, err := claims.SessionUUID()
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}

	session, err := g.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, err
	}
	if session.UserID != userID || session.Expired(g.now()) {
		return nil, apperrors.ErrUnauthenticated
	}

	user, err := g.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, err
	}

	return &Principal{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		SessionID: session.ID,
	}, nil
}

// RequireRole allows the request only when the principal holds one of roles.
// It must run after Authenticate.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return apperrors.MapErrorToHTTP(apperrors.ErrUnauthenticated).Echo()
			}
			if _, ok := allowed[p.Role]; !ok {
				return apperrors.MapErrorToHTTP(apperrors.ErrForbidden).Echo()
			}
			return next(c)
		}
	}
}

// AdminOnly fails closed unless the principal is an admin.
func AdminOnly() echo.MiddlewareFunc {
	return RequireRole(model.RoleAdmin)
}

// SelfOrAdmin returns the principal when it may act on userID, otherwise
// ErrUnauthenticated or ErrForbidden.
func SelfOrAdmin(c echo.Context, userID uuid.UUID) (*Principal, error) {
	p, ok := PrincipalFrom(c)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	if !p.CanActOn(userID) {
		return nil, apperrors.ErrForbidden
	}
	return p, nil
}
