package auth

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"storefront/internal/model"
)

const principalKey = "principal"

// Principal is the authenticated caller of a request.
type Principal struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	SessionID uuid.UUID  `json:"sessionId"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == model.RoleAdmin
}

// CanActOn reports whether the principal may mutate the given user: either the
// user themself or any admin.
func (p *Principal) CanActOn(userID uuid.UUID) bool {
	if p == nil {
		return false
	}
	return p.IsAdmin() || p.ID == userID
}

// SetPrincipal stores the principal on the request context.
func SetPrincipal(c echo.Context, p *Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal resolved by Gate.Authenticate.
func PrincipalFrom(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(principalKey).(*Principal)
	return p, ok && p != nil
}
