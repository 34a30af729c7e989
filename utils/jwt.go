package utils

import (
	"errors"
	"time"

	"innkeep/config"

	"github.com/golang-jwt/jwt"
)

// ScopePaymentsWrite authorizes the service-level reconciliation path.
const ScopePaymentsWrite = "payments:write"

func serviceSecret() []byte {
	return []byte(config.AppConfig.ServiceAuthSecret)
}

// GenerateServiceToken creates a signed HS256 token identifying a
// server-to-server caller with an explicit scope. This replaces any implicit
// "not a browser" trust heuristic with a verifiable credential.
func GenerateServiceToken(clientID, scope string, duration time.Duration) (string, error) {
	secret := serviceSecret()
	if len(secret) == 0 {
		return "", errors.New("service auth secret not configured")
	}
	claims := jwt.MapClaims{
		"sub":   clientID,
		"scope": scope,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateServiceToken parses a service token and returns its claims.
// An unconfigured secret fails closed: every token is rejected.
func ValidateServiceToken(tokenString string) (jwt.MapClaims, error) {
	secret := serviceSecret()
	if len(secret) == 0 {
		return nil, errors.New("service auth secret not configured")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ServiceTokenScope extracts the scope claim from a validated token string.
func ServiceTokenScope(tokenString string) (string, error) {
	claims, err := ValidateServiceToken(tokenString)
	if err != nil {
		return "", err
	}
	scope, ok := claims["scope"].(string)
	if !ok || scope == "" {
		return "", errors.New("token does not contain a valid 'scope' claim")
	}
	return scope, nil
}
