package auth

import (
	"context"

	"github.com/skillsenselab/registry/errors"
	"github.com/skillsenselab/registry/logger"
)

// Credential is the stored identity an actor authenticates with.
type Credential struct {
	Username     string
	PasswordHash string
	Access       AccessLevel
}

// CredentialSource looks up stored credentials by username. Implemented by
// the registry store; absence is reported as a NOT_FOUND AppError.
type CredentialSource interface {
	FindCredential(ctx context.Context, username string) (*Credential, error)
}

// Service authenticates callers against a CredentialSource and issues tokens.
type Service struct {
	source CredentialSource
	tokens *TokenService
	hasher Hasher
	log    *logger.Logger
}

// NewService creates an authentication service.
func NewService(source CredentialSource, tokens *TokenService, hasher Hasher, log *logger.Logger) *Service {
	return &Service{
		source: source,
		tokens: tokens,
		hasher: hasher,
		log:    log.WithComponent("auth"),
	}
}

// Login verifies username/password and returns a signed token. Unknown users
// and wrong passwords both surface the same UNAUTHORIZED error so the
// endpoint does not leak which usernames exist.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	cred, err := s.source.FindCredential(ctx, username)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeNotFound) {
			s.log.Warn("login attempt for unknown user", map[string]interface{}{
				"username": username,
			})
			return "", errors.Unauthorized("Invalid credentials.")
		}
		return "", err
	}

	if err := s.hasher.Verify(password, cred.PasswordHash); err != nil {
		s.log.Warn("login attempt with invalid password", map[string]interface{}{
			"username": username,
		})
		return "", errors.Unauthorized("Invalid credentials.")
	}

	token, err := s.tokens.Issue(cred.Username, cred.Access)
	if err != nil {
		return "", errors.Internal(err)
	}

	s.log.Info("login succeeded", map[string]interface{}{
		"username": username,
		"access":   string(cred.Access),
	})
	return token, nil
}

// Verify validates a token string and resolves the caller identity.
func (s *Service) Verify(tokenString string) (Identity, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Username: claims.Username, Access: claims.Access}, nil
}
