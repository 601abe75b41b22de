package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "mediclass"

// Claims is the payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Name         string `json:"name"`
	Registration string `json:"registration"`
	Role         Role   `json:"role"`
}

// Issuer signs and parses HS256 session tokens.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewIssuer(signingKey []byte, ttl time.Duration) *Issuer {
	return &Issuer{key: signingKey, ttl: ttl, now: time.Now}
}

// Issue returns a signed token for s and its expiry.
func (i *Issuer) Issue(s Session) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Login,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Name:         s.Name,
		Registration: s.Registration,
		Role:         s.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates a token and rebuilds its session.
func (i *Issuer) Parse(tokenStr string) (Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Session{}, err
	}
	if !token.Valid {
		return Session{}, errors.New("invalid token")
	}
	role, err := ParseRole(string(claims.Role))
	if err != nil {
		return Session{}, err
	}
	return NewSession(claims.Subject, claims.Name, claims.Registration, role), nil
}
