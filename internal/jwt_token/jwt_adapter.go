package jwttoken

import (
	authmw "vozsegura/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *Claims) *authmw.StaffClaims {
	return &authmw.StaffClaims{
		Username: claims.Username,
		Role:     claims.Role,
		JTI:      claims.ID,
	}
}

// JWTServiceAdapter lets the auth middleware validate tokens without
// depending on the jwt library.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.StaffClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
