package middleware

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	jwtpkg "github.com/piresc/tirtha/internal/pkg/jwt"
	"github.com/piresc/tirtha/internal/pkg/models"
	"github.com/piresc/tirtha/internal/utils"
)

// Context keys set by JWTAuthMiddleware
const (
	ContextUserID      = "user_id"
	ContextUserRole    = "user_role"
	ContextGroupID     = "group_id"
	ContextDisplayName = "display_name"
	ContextMSISDN      = "msisdn"
)

// JWTAuthMiddleware verifies the bearer token and exposes the actor identity to handlers
func JWTAuthMiddleware(config models.JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return utils.UnauthorizedResponse(c, "Authorization header is required")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return utils.UnauthorizedResponse(c, "Invalid authorization format")
			}

			claims, err := jwtpkg.ValidateToken(parts[1], config.Secret)
			if err != nil {
				return utils.UnauthorizedResponse(c, "Invalid token")
			}

			userID, ok := claims["user_id"]
			if !ok || fmt.Sprintf("%v", userID) == "" {
				return utils.UnauthorizedResponse(c, "Invalid token: missing user_id claim")
			}

			c.Set(ContextUserID, fmt.Sprintf("%v", userID))
			c.Set(ContextUserRole, claimString(claims, "role"))
			c.Set(ContextGroupID, claimString(claims, "group_id"))
			c.Set(ContextDisplayName, claimString(claims, "name"))
			c.Set(ContextMSISDN, claimString(claims, "msisdn"))

			return next(c)
		}
	}
}

// ActorID returns the verified actor id set by JWTAuthMiddleware
func ActorID(c echo.Context) string {
	v, _ := c.Get(ContextUserID).(string)
	return v
}

// StringValue returns a string value stored on the echo context
func StringValue(c echo.Context, key string) string {
	v, _ := c.Get(key).(string)
	return v
}

func claimString(claims jwt.MapClaims, key string) string {
	v, ok := claims[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
