package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// tokenParser accepts HS256 only and requires exp.  A few seconds of leeway
// absorb clock drift between the identity service and this process.
var tokenParser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithExpirationRequired(),
	jwt.WithLeeway(5*time.Second),
)

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get(echo.HeaderAuthorization), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func unauthenticated(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"error":     "unauthenticated",
		"message":   msg,
		"retryable": false,
	})
}

// JWTAuth validates the bearer access token issued by the identity service
// and stores its sub and role claims on the context for UserID and Role.
func JWTAuth(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	keyFunc := func(*jwt.Token) (interface{}, error) { return key, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request())
			if !ok {
				return unauthenticated(c, "missing bearer token")
			}
			claims := jwt.MapClaims{}
			if _, err := tokenParser.ParseWithClaims(raw, claims, keyFunc); err != nil {
				return unauthenticated(c, "invalid or expired token")
			}
			uid, ok := subjectID(claims["sub"])
			if !ok {
				return unauthenticated(c, "token subject is not a user id")
			}
			role, _ := claims["role"].(string)

			c.Set(ctxUserID, uid)
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}
