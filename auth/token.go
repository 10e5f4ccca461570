package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/diewo77/go-shop/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid_token")

// Claims is the verified content of an access token.
type Claims struct {
	ClientID uint   `json:"client_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// SubjectRole lets Claims satisfy gate.Subject.
func (c *Claims) SubjectRole() string { return c.Role }

func (c *Claims) IsAdmin() bool { return c.Role == models.RoleAdmin }

// Issuer signs and verifies HS256 tokens with a server-held key.
type Issuer struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewIssuer(key, issuer, audience string, ttl time.Duration) *Issuer {
	return &Issuer{key: []byte(key), issuer: issuer, audience: audience, ttl: ttl, now: time.Now}
}

// Generate issues a token for c and returns it with its expiry.
func (i *Issuer) Generate(c *models.Client) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		ClientID: c.ID,
		Email:    c.Email,
		Role:     c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(c.ID), 10),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies signature, algorithm, expiry, issuer and audience.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return i.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.VerifyIssuer(i.issuer, true) || !claims.VerifyAudience(i.audience, true) {
		return nil, ErrInvalidToken
	}
	if claims.ClientID == 0 || claims.Subject != strconv.FormatUint(uint64(claims.ClientID), 10) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
