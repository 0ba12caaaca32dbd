package jwtutil

import (
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID      string   `json:"uid"`
	Email       string   `json:"email,omitempty"`
	Status      string   `json:"status,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	PrimaryRole string   `json:"role,omitempty"`
	jwt.RegisteredClaims
}
