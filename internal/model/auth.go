package model

import "github.com/golang-jwt/jwt/v5"

// LearnerClaims are the JWT claims issued to an authenticated learner
type LearnerClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}
