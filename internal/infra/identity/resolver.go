package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Resolver supplies the caller identity for a connection. The gateway trusts
// the returned value as-is; verification beyond signature checking is the
// token issuer's concern.
type Resolver interface {
	Resolve(c echo.Context) (string, error)
}

// PathResolver takes the identity straight from the route, matching the
// /ws/:room/:user addressing scheme.
type PathResolver struct {
	param string
}

func NewPathResolver() *PathResolver {
	return &PathResolver{param: "user"}
}

func (p *PathResolver) Resolve(c echo.Context) (string, error) {
	id := c.Param(p.param)
	if id == "" {
		id = c.QueryParam("user_id")
	}
	if id == "" {
		return "", errors.New("missing user identity")
	}

	return id, nil
}

// JWTResolver derives the identity from the subject of a signed bearer
// credential, read from the jwt cookie or the Authorization header.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

func (j *JWTResolver) Resolve(c echo.Context) (string, error) {
	raw := rawToken(c)
	if raw == "" {
		return "", errors.New("missing credentials")
	}

	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		return j.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}

	return claims.Subject, nil
}

func rawToken(c echo.Context) string {
	if cookie, err := c.Cookie("jwt"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}

	return ""
}
