package jwtmiddleware

import (
	"errors"
	"net/http"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const ContextKey = "superadmin"

// SuperAdmin guards the platform API. Tokens come from the Authorization
// header and must carry the superadmin role.
func SuperAdmin(secret []byte) echo.MiddlewareFunc {
	parse := echojwt.WithConfig(echojwt.Config{
		SigningKey:    secret,
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    ContextKey,
		TokenLookup:   "header:Authorization:Bearer ",
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(tokens.AccessClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing superadmin token")
		},
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return parse(requireSuperAdmin(next))
	}
}

func requireSuperAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := Claims(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		if claims.Role != models.RoleSuperAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "superadmin access required")
		}
		return next(c)
	}
}

// Claims returns the claims stored by SuperAdmin.
func Claims(c echo.Context) (*tokens.AccessClaims, error) {
	tok, ok := c.Get(ContextKey).(*jwt.Token)
	if !ok || tok == nil {
		return nil, errors.New("no token in context")
	}
	claims, ok := tok.Claims.(*tokens.AccessClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}
	return claims, nil
}
