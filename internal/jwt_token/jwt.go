// Package jwttoken issues and verifies the bearer tokens that carry an
// account's identity. Verification is pure: it never consults a store.
package jwttoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "market/pkg/domain"
)

var (
	// ErrMalformed covers bad structure, bad signature, wrong algorithm and
	// an unusable subject.
	ErrMalformed = errors.New("malformed token")
	ErrExpired   = errors.New("token expired")
)

const DefaultTTL = 30 * 24 * time.Hour

// Claims is the token payload.
type Claims struct {
	jwt.RegisteredClaims
}

// Service signs with a key fixed at construction.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(signingKey, issuer string, ttl time.Duration, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) TTL() time.Duration { return s.ttl }

// Issue signs a token whose subject is accountID.
func (s *Service) Issue(accountID id.AccountID) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature before any claim, then expiry, and returns
// the subject. The only errors are ErrMalformed and ErrExpired.
func (s *Service) Verify(tokenString string) (id.AccountID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.AccountID{}, ErrExpired
		}
		return id.AccountID{}, ErrMalformed
	}
	if !parsed.Valid {
		return id.AccountID{}, ErrMalformed
	}

	accountID, err := id.ParseAccountID(claims.Subject)
	if err != nil {
		return id.AccountID{}, ErrMalformed
	}
	return accountID, nil
}
