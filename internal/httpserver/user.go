package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type UserHTTP struct {
	Svc    *service.AuthService
	Secure bool
}

func setAccessCookie(c echo.Context, token string, exp time.Time, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAccessCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *UserHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "register_error", err)
	}

	us, err := h.Svc.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return fail(l, "register_error", err, "")
	}
	setAccessCookie(c, us.Token, us.ExpiresAt, h.Secure)

	l.Info("register_success", "user_id", us.ID.String())
	return c.JSON(http.StatusCreated, us)
}

func (h *UserHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "login_error", err)
	}

	us, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_error", err, "")
	}
	setAccessCookie(c, us.Token, us.ExpiresAt, h.Secure)

	l.Info("login_success", "user_id", us.ID.String())
	return c.JSON(http.StatusOK, us)
}

func (h *UserHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_profile")

	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.ProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_profile_error", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "update_profile_error", err)
	}

	us, err := h.Svc.UpdateProfile(ctx, who.ID, req.Name, req.Email, req.Password)
	if err != nil {
		return fail(l, "update_profile_error", err, "")
	}
	setAccessCookie(c, us.Token, us.ExpiresAt, h.Secure)
	return c.JSON(http.StatusOK, us)
}

type KeysHTTP struct {
	PayPalClientID string
}

// PayPal returns the client id the browser SDK is loaded with. "sb" is
// PayPal's sandbox id.
func (h *KeysHTTP) PayPal(c echo.Context) error {
	if h.PayPalClientID == "" {
		return c.String(http.StatusOK, "sb")
	}
	return c.String(http.StatusOK, h.PayPalClientID)
}
