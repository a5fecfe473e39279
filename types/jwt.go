package types

import "github.com/golang-jwt/jwt/v5"

// Claims represents the JWT claims
type Claims struct {
	PrincipalID uint          `json:"id"`
	Kind        PrincipalKind `json:"type"`
	jwt.RegisteredClaims
}

// Principal returns the identity carried by the token.
func (c *Claims) Principal() Principal {
	return Principal{Kind: c.Kind, ID: c.PrincipalID}
}
