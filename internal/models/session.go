package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims данные, хранящиеся в JWT токене cookie сессии
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
