package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fuelrecon-backend/internal/domain"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const (
	TokenTypeAccess TokenType = "access"
)

const accessAudience = "fuelrecon-api"

// StationClaims carries the caller identity the engines need.
type StationClaims struct {
	TenantID int64       `json:"tenant_id"`
	UserID   int64       `json:"user_id"`
	Role     domain.Role `json:"role"`
	Type     TokenType   `json:"type"`
	jwt.RegisteredClaims
}

// AuthContext converts validated claims into the engine's caller type.
func (c *StationClaims) AuthContext() domain.AuthContext {
	return domain.AuthContext{TenantID: c.TenantID, UserID: c.UserID, Role: c.Role}
}

type TokenManager interface {
	GenerateAccessToken(auth domain.AuthContext, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (*StationClaims, error)
}

type tokenManager struct {
	secret []byte
	issuer string
}

func NewTokenManager(secret, issuer string) TokenManager {
	return &tokenManager{
		secret: []byte(secret),
		issuer: issuer,
	}
}

func (m *tokenManager) GenerateAccessToken(auth domain.AuthContext, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := StationClaims{
		TenantID: auth.TenantID,
		UserID:   auth.UserID,
		Role:     auth.Role,
		Type:     TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(auth.UserID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{accessAudience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*StationClaims, error) {
	opts := []jwt.ParserOption{jwt.WithAudience(accessAudience)}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &StationClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*StationClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	if claims.TenantID <= 0 || !claims.Role.IsValid() {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 && claims.Subject != "" {
		uid, _ := strconv.ParseInt(claims.Subject, 10, 64)
		claims.UserID = uid
	}
	return claims, nil
}
