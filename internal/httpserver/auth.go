package httpserver

import (
	"net/http"
	"time"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/labstack/echo/v4"
)

const accessCookie = "accessToken"

type AuthHTTP struct {
	Svc       *service.AuthService
	CookieTTL time.Duration
}

func createCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func deleteCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body", err)
	}

	u, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "user_id", u.ID)
	return c.JSON(http.StatusCreated, echo.Map{"message": "user registered", "user": u})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_failed", err)
	}
	if res.AccessToken != "" {
		c.SetCookie(createCookie(accessCookie, res.AccessToken, "/", time.Now().Add(h.CookieTTL)))
	}

	l.Info("login_successful", "onboarding", res.RequiresOnboarding)
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) CompleteOnboarding(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.complete_onboarding")

	id, err := userID(c)
	if err != nil {
		return err
	}
	var req transport.OnboardingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "onboarding_error", "invalid body", err)
	}

	res, err := h.Svc.CompleteOnboarding(ctx, id, req)
	if err != nil {
		return fail(l, "onboarding_error", err)
	}
	c.SetCookie(createCookie(accessCookie, res.AccessToken, "/", time.Now().Add(h.CookieTTL)))

	l.Info("onboarding_complete", "user_id", id)
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	id, err := userID(c)
	if err != nil {
		return err
	}
	u, err := h.Svc.Me(ctx, id)
	if err != nil {
		return fail(l, "me_error", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	c.SetCookie(deleteCookie(accessCookie, "/"))
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) RequestSeller(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.request_seller")

	id, err := userID(c)
	if err != nil {
		return err
	}
	var req transport.SellerAccessRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "request_seller_error", "invalid body", err)
	}

	sr, err := h.Svc.RequestSellerAccess(ctx, id, req.Note)
	if err != nil {
		return fail(l, "request_seller_error", err)
	}

	l.Info("seller_request_created", "request_id", sr.ID)
	return c.JSON(http.StatusCreated, sr)
}
