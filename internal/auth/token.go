package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const minSecretLength = 32

// Claims is the payload carried by an access credential.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenAuthenticator issues and verifies HS256 access credentials with an injected secret.
type TokenAuthenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenAuthenticator(secret []byte, ttl time.Duration) (*TokenAuthenticator, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &TokenAuthenticator{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source; used by tests.
func (a *TokenAuthenticator) WithClock(now func() time.Time) *TokenAuthenticator {
	a.now = now
	return a
}

func (a *TokenAuthenticator) TTL() time.Duration {
	return a.ttl
}

func (a *TokenAuthenticator) Issue(subjectID int64, role string) (string, time.Time, error) {
	return a.IssueWithTTL(subjectID, role, a.ttl)
}

func (a *TokenAuthenticator) IssueWithTTL(subjectID int64, role string, ttl time.Duration) (string, time.Time, error) {
	// NumericDate carries whole seconds; stamp on that grid so exp is exactly iat+ttl.
	issuedAt := a.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks segment layout, signature and expiry, in that order.
func (a *TokenAuthenticator) Verify(credential string) (Identity, error) {
	if strings.Count(credential, ".") != 2 {
		return Identity{}, ErrInvalidFormat
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Identity{}, ErrInvalidFormat
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Identity{}, ErrSignatureMismatch
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, ErrExpired
		default:
			return Identity{}, ErrInvalidToken
		}
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	subjectID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subjectID <= 0 {
		return Identity{}, ErrInvalidToken
	}
	if claims.Role == "" {
		return Identity{}, ErrInvalidToken
	}

	id := Identity{
		SubjectID: subjectID,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	return id, nil
}
