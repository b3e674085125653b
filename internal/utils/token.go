package utils

import (
	"errors"
	"time"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "quotedesk"

type tokenClaims struct {
	jwt.RegisteredClaims
	CompanyID string          `json:"company_id"`
	Role      models.UserRole `json:"role"`
}

// IssueToken signs an HS256 access token for p.
func IssueToken(secret string, p models.Principal, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("jwt secret is empty")
	}
	exp := now.Add(ttl)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		CompanyID: p.CompanyID,
		Role:      p.Role,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return s, exp, err
}

// ParseToken validates signature, expiry and issuer and returns the caller.
func ParseToken(secret, raw string) (models.Principal, error) {
	claims := &tokenClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return models.Principal{}, err
	}
	if !tok.Valid || claims.CompanyID == "" || claims.Subject == "" {
		return models.Principal{}, errors.New("token is missing claims")
	}
	role := claims.Role
	if role != models.RoleAdmin {
		role = models.RoleUser
	}
	return models.Principal{Subject: claims.Subject, CompanyID: claims.CompanyID, Role: role}, nil
}
