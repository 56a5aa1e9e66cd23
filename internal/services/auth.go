package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const jwtExpDays = 365

// AuthService issues and checks member bearer tokens. Accounts live in a
// separate subsystem; a token only carries the member ID.
type AuthService struct {
	jwtSecret string
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{
		jwtSecret: jwtSecret,
		now:       time.Now,
	}
}

// GenerateJWT generates a JWT token for a member
func (s *AuthService) GenerateJWT(memberID string) (string, error) {
	if memberID == "" {
		return "", fmt.Errorf("member id required")
	}
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": memberID,
		"exp":     now.AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the member ID
func (s *AuthService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	memberID, ok := claims["user_id"].(string)
	if !ok || memberID == "" {
		return "", fmt.Errorf("user_id not found in token")
	}

	return memberID, nil
}
