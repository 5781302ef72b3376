package model

import "github.com/golang-jwt/jwt"

// UserClaims carries the identity of API callers; Subject is the user id.
type UserClaims struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	jwt.StandardClaims
}
