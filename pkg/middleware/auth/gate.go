package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	AccessCookie = "accessToken"
	identityKey  = "identity"
)

var ErrAuth = errors.New("unauthorized")

// Identity is the caller as established by the gate. Handlers never take a
// user id from the request body.
type Identity struct {
	ID      uuid.UUID
	IsAdmin bool
}

type Resolver interface {
	Resolve(ctx context.Context, credential string) (Identity, error)
}

// JWTResolver resolves HS256 access tokens issued by tokens.Issuer.
type JWTResolver struct {
	Secret []byte
}

func (r JWTResolver) Resolve(_ context.Context, credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, fmt.Errorf("%w: missing credential", ErrAuth)
	}
	claims, err := tokens.AccessClaimsFromToken(credential, r.Secret)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad subject", ErrAuth)
	}
	return Identity{ID: id, IsAdmin: claims.Role == tokens.RoleAdmin}, nil
}

type Gate struct {
	Resolver Resolver
}

func NewGate(r Resolver) *Gate {
	return &Gate{Resolver: r}
}

func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return g.require(next, false)
}

func (g *Gate) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return g.require(next, true)
}

func (g *Gate) require(next echo.HandlerFunc, admin bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("mw", "auth.gate")

		id, err := g.Resolver.Resolve(ctx, Credential(c))
		if err != nil {
			l.Warn("auth_rejected", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		if admin && !id.IsAdmin {
			l.Warn("auth_rejected", "status", 403, "user_id", id.ID.String())
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}

		SetIdentity(c, id)
		return next(c)
	}
}

// Optional records the caller's identity when the request carries a valid
// credential and lets anonymous requests through.
func (g *Gate) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if id, err := g.Resolver.Resolve(c.Request().Context(), Credential(c)); err == nil {
			SetIdentity(c, id)
		}
		return next(c)
	}
}

// Credential returns the bearer token from the Authorization header, falling
// back to the access token cookie.
func Credential(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(tok)
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

func SetIdentity(c echo.Context, id Identity) {
	c.Set(identityKey, id)
	c.Set("user_id", id.ID.String())
	if id.IsAdmin {
		c.Set("role", tokens.RoleAdmin)
	} else {
		c.Set("role", tokens.RoleUser)
	}
}

func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}
