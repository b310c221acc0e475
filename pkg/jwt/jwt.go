package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles reconocidos por el middleware RBAC.
const (
	RoleAdmin      = "admin"
	RoleInspector  = "inspector"
	RoleAccountant = "accountant"
)

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// AgentID solo viene informado para usuarios con rol inspector.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"user_id"`
	AgentID string `json:"agent_id,omitempty"`
	Role    string `json:"role"` // "admin" | "inspector" | "accountant"
}

// Generate genera un token JWT firmado que incluye userID, agentID y role.
func Generate(secret, userID, agentID, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:  userID,
		AgentID: agentID,
		Role:    role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve userID, agentID y role.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (userID, agentID, role string, err error) {
	if secret == "" {
		return "", "", "", fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", "", "", fmt.Errorf("claims inválidos")
	}
	return claims.UserID, claims.AgentID, claims.Role, nil
}

// IsKnownRole informa si role es uno de los roles de la aplicación.
func IsKnownRole(role string) bool {
	switch role {
	case RoleAdmin, RoleInspector, RoleAccountant:
		return true
	}
	return false
}
