package fakeapi

import jwt "github.com/dgrijalva/jwt-go"

type contextKey string

const claimsContextKey contextKey = "claims"

// Claims ride inside the CSRF token minted at login.
type Claims struct {
	Identity string `json:"identity"`
	Admin    bool   `json:"admin"`
	jwt.StandardClaims
}
