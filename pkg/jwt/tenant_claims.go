package jwt

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TenantClaims is the payload of a gateway-issued JWT that seeds TenantContext
// at ingress. The gateway is the one that performs real subject authentication;
// this service only verifies the signature and reads the tenant scoping back out.
type TenantClaims struct {
	TenantID       uuid.UUID `json:"tenantId"`
	BusinessUnitID string    `json:"businessUnitId,omitempty"`
	CustomerID     string    `json:"customerId,omitempty"`
	jwt.RegisteredClaims
}

// ValidateTenantToken validates a gateway-issued bearer token and returns the
// tenant claims it carries.
func (s *JWTService) ValidateTenantToken(tokenString string) (*TenantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TenantClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TenantClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GenerateTenantToken is used by tests and the gateway simulator to mint a
// token carrying tenant-scoping claims.
func (s *JWTService) GenerateTenantToken(tc TenantClaims, expiry jwt.NumericDate) (string, error) {
	tc.RegisteredClaims.ExpiresAt = &expiry
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tc)
	return signJWTToken(token, s.secret)
}
