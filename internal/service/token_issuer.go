package service

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer mints and checks bearer tokens for an identity.
type TokenIssuer interface {
	Issue(identity Identity) (string, error)
	Validate(token string) (*Identity, error)
}

// StaticTokenIssuer hands out one shared, non-expiring secret.
type StaticTokenIssuer struct {
	token    string
	identity Identity
}

// NewStaticTokenIssuer returns an issuer for token. An empty token is
// replaced by a random one so the admin API is never open by accident.
func NewStaticTokenIssuer(token string, identity Identity) *StaticTokenIssuer {
	token = strings.TrimSpace(token)
	if token == "" {
		token = uuid.NewString()
	}
	return &StaticTokenIssuer{token: token, identity: identity}
}

func (s *StaticTokenIssuer) Issue(Identity) (string, error) {
	return s.token, nil
}

func (s *StaticTokenIssuer) Validate(token string) (*Identity, error) {
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
		return nil, ErrUnauthorized
	}
	identity := s.identity
	return &identity, nil
}

// AdminClaims is the JWT payload produced by JWTIssuer.
type AdminClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 tokens that expire after ttl.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer returns a JWT issuer. secret must be non-empty.
func NewJWTIssuer(secret string, ttl time.Duration) (*JWTIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (j *JWTIssuer) Issue(identity Identity) (string, error) {
	now := j.now()
	claims := AdminClaims{
		Email: identity.Email,
		Name:  identity.Name,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

func (j *JWTIssuer) Validate(token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(token, &AdminClaims{}, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now))
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AdminClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	return &Identity{ID: claims.Subject, Email: claims.Email, Name: claims.Name, Role: claims.Role}, nil
}
