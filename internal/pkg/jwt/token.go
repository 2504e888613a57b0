package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/piresc/tirtha/internal/pkg/models"
)

// ActorClaims are the identity fields embedded in an access token
type ActorClaims struct {
	UserID  string
	GroupID string
	Name    string
	MSISDN  string
	Role    string
}

// GenerateToken generates a signed JWT for the given actor
func GenerateToken(actor ActorClaims, cfg models.JWTConfig) (string, int64, error) {
	expiresAt := time.Now().Add(time.Duration(cfg.Expiration) * time.Minute).Unix()

	claims := jwt.MapClaims{
		"user_id": actor.UserID,
		"role":    actor.Role,
		"exp":     expiresAt,
		"iss":     cfg.Issuer,
	}
	if actor.GroupID != "" {
		claims["group_id"] = actor.GroupID
	}
	if actor.Name != "" {
		claims["name"] = actor.Name
	}
	if actor.MSISDN != "" {
		claims["msisdn"] = actor.MSISDN
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates an HMAC signed JWT and returns its claims
func ValidateToken(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
