// Package auth issues and verifies the bearer tokens guarding the admin API.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	apierr "github.com/atldata/igs/pkg/api/types/errors"
)

const issuer = "igsd"

// Issuer mints admin tokens signed with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) Issuer {
	return Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue mints a token naming subject, valid for the issuer's ttl.
func (i Issuer) Issue(subject string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	})
	return token.SignedString(i.secret)
}

// Verify checks signature, expiry and issuer, returning the subject.
func Verify(secret, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Middleware rejects requests lacking a valid bearer token.
//
// An empty secret disables the guarded routes altogether, so a daemon
// cannot be left accidentally open by an unset config.
func Middleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return apierr.ServiceUnavailable(
					"admin API is disabled; set authSecret in the server config", nil,
				)
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found || tokenString == "" {
				return apierr.Unauthorized("set the Authorization header to a bearer token", nil)
			}

			subject, err := Verify(secret, tokenString)
			if err != nil {
				return apierr.Unauthorized(
					"token is invalid or expired", fmt.Errorf("verify token: %w", err),
				)
			}
			c.Set("auth.subject", subject)
			return next(c)
		}
	}
}
