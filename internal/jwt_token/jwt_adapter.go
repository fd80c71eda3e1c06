package jwttoken

import (
	authmw "transcript/pkg/platform/middleware/auth"
)

// ToMiddlewareClaims converts validated claims for the auth middleware.
func ToMiddlewareClaims(claims *Claims) (*authmw.CallerClaims, error) {
	caller, err := claims.Caller()
	if err != nil {
		return nil, err
	}
	return &authmw.CallerClaims{
		Caller: caller,
		JTI:    claims.ID,
	}, nil
}

type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.CallerClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims)
}
