package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash keeps the unknown-user path as slow as a real password check.
var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3ZzY4Xq1x6lS5hCwE3Cz1lK")

type TokenIssuer interface {
	Issue(subjectID int64, role string) (string, time.Time, error)
	Verify(credential string) (Identity, error)
}

type Service struct {
	credentials CredentialStore
	tokens      TokenIssuer
	logger      *slog.Logger
}

func NewService(credentials CredentialStore, tokens TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		credentials: credentials,
		tokens:      tokens,
		logger:      logger,
	}
}

// Authenticate checks email and password against the user directory and issues an access credential.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.credentials.GetCredentials(ctx, dto.Email)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(dto.Password))
		s.logger.Warn("login failed: credentials lookup", "email", dto.Email, "error", err)
		return AuthTokens{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login failed: password mismatch", "user_id", creds.UserID)
		return AuthTokens{}, ErrInvalidCredentials
	}

	if !creds.IsActive {
		s.logger.Warn("login failed: inactive user", "user_id", creds.UserID)
		return AuthTokens{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(creds.UserID, creds.Role)
	if err != nil {
		return AuthTokens{}, err
	}

	s.logger.Info("user logged in", "user_id", creds.UserID, "role", creds.Role)
	return AuthTokens{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *Service) Verify(credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, ErrInvalidFormat
	}
	return s.tokens.Verify(credential)
}

// HashPassword creates a bcrypt hash of the password.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func IsTokenError(err error) bool {
	return errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrSignatureMismatch) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrInvalidToken)
}
