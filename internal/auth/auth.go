package auth

import (
	"context"
	"errors"
	"time"
)

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

type ctxKey string

const ContextIdentityKey ctxKey = "identity"

// Identity is the verified caller extracted from a credential.
type Identity struct {
	SubjectID int64     `json:"subject_id"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func (i Identity) HasRole(role string) bool {
	return i.Role == role
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ContextIdentityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ContextIdentityKey).(Identity)
	return id, ok
}

// Credentials is what login needs from the user directory.
type Credentials struct {
	UserID       int64
	PasswordHash string
	Role         string
	IsActive     bool
}

type AuthTokens struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	Verify(credential string) (Identity, error)
}

type CredentialStore interface {
	GetCredentials(ctx context.Context, email string) (Credentials, error)
}

var (
	ErrInvalidFormat      = errors.New("invalid token format")
	ErrSignatureMismatch  = errors.New("token signature mismatch")
	ErrExpired            = errors.New("token expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakSecret         = errors.New("token secret must be at least 32 bytes")
)
