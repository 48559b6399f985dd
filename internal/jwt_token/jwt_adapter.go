package jwttoken

import (
	authmw "cockpit/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *Claims) *authmw.JWTClaims {
	mw := &authmw.JWTClaims{
		UserID: claims.Subject,
		JTI:    claims.ID, // revocation key
	}
	if claims.ExpiresAt != nil {
		mw.ExpiresAt = claims.ExpiresAt.Time
	}
	return mw
}

// JWTServiceAdapter satisfies authmw.JWTValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
