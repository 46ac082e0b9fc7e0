package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const signedIssuer = "bookit"

// Claims represents the signed identity cookie payload
type Claims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// SignedCodec stores the identity as an HS256 JWT, so the role can no
// longer be forged by editing the cookie.
type SignedCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedCodec creates a codec. An empty secret gets a random 32-byte key
// (tokens then do not survive a restart). ttl == 0 disables expiry.
func NewSignedCodec(secret []byte, ttl time.Duration) (*SignedCodec, error) {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate secret: %w", err)
		}
	}
	if len(secret) < 32 {
		return nil, errors.New("secret key must be at least 32 bytes")
	}
	return &SignedCodec{secret: secret, ttl: ttl, now: time.Now}, nil
}

// DecodeSecret parses a base64 secret from configuration.
func DecodeSecret(secret string) ([]byte, error) {
	if secret == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(secret)
}

// Encode implements IdentityCodec.
func (c *SignedCodec) Encode(id Identity) (string, error) {
	now := c.now()
	claims := &Claims{
		Email: id.Email,
		Role:  id.Role,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    signedIssuer,
			Subject:   id.Email,
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Decode implements IdentityCodec.
func (c *SignedCodec) Decode(raw string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(signedIssuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrMalformedIdentity, err)
	}

	id := Identity{Email: claims.Email, Role: claims.Role, Name: claims.Name}
	if err := id.Validate(); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrMalformedIdentity, err)
	}
	return id, nil
}

// GenerateSecureSecret generates a new base64 secret for configuration files.
func GenerateSecureSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}
