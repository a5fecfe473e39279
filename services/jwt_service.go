package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"handyconnect-server/types"
)

const tokenIssuer = "handyconnect-server"

// TokenService issues and validates access tokens and hashes passwords.
type TokenService struct {
	secret []byte
	expiry time.Duration
	cost   int
	now    func() time.Time
}

// NewTokenService creates a token service signing with secret.
func NewTokenService(secret string, expiryHours int) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		expiry: time.Duration(expiryHours) * time.Hour,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

// AuthToken is returned by every login endpoint.
type AuthToken struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	TokenType string `json:"tokenType"`
}

// Issue signs a token carrying the principal.
func (ts *TokenService) Issue(p types.Principal) (*AuthToken, error) {
	if !p.Kind.Valid() || p.ID == 0 {
		return nil, fmt.Errorf("cannot issue token for principal %s", p)
	}

	now := ts.now()
	claims := &types.Claims{
		PrincipalID: p.ID,
		Kind:        p.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(p.ID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(ts.secret)
	if err != nil {
		return nil, err
	}

	return &AuthToken{
		Token:     tokenString,
		ExpiresIn: int64(ts.expiry / time.Second),
		TokenType: "Bearer",
	}, nil
}

// Validate parses a token and returns its principal.
func (ts *TokenService) Validate(tokenString string) (types.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &types.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ts.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(ts.now))
	if err != nil {
		return types.Principal{}, err
	}

	claims, ok := token.Claims.(*types.Claims)
	if !ok || !token.Valid {
		return types.Principal{}, errors.New("invalid token claims")
	}

	p := claims.Principal()
	if !p.Kind.Valid() || p.ID == 0 {
		return types.Principal{}, errors.New("token carries no principal")
	}
	return p, nil
}

// HashPassword hashes a password using bcrypt
func (ts *TokenService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), ts.cost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func (ts *TokenService) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
