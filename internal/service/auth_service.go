package service

import (
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"

	"taxrecon/internal/config"
	"taxrecon/internal/domain"
)

// Claims represents the JWT claims accepted by the API. Tokens are issued by
// an external identity provider; this service only verifies them.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// AuthService verifies bearer tokens.
type AuthService interface {
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	cfg config.AuthConfig
}

// NewAuthService creates a new AuthService for HS256-signed tokens.
func NewAuthService(cfg config.AuthConfig) AuthService {
	return &authService{cfg: cfg}
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing token: %v", domain.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	if s.cfg.Audience != "" {
		aud, _ := claims.GetAudience()
		if !slices.Contains(aud, s.cfg.Audience) {
			return nil, domain.ErrUnauthorized
		}
	}
	return claims, nil
}
