package auth

import (
	stderrors "errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/skillsenselab/registry/errors"
)

// TokenService signs and verifies HS256 tokens carrying Claims. Tokens are
// stateless: expiry is the only revocation mechanism.
type TokenService struct {
	cfg TokenConfig
}

// TokenConfig configures token signing.
type TokenConfig struct {
	// Secret is the HMAC signing key.
	Secret string `yaml:"secret" mapstructure:"secret"`
	// TTL is the token lifetime. Kept short; clients re-login rather than refresh.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
	// Issuer is the "iss" claim (optional).
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
}

// ApplyDefaults fills zero-value fields with sensible defaults.
func (c *TokenConfig) ApplyDefaults() {
	if c.TTL == 0 {
		c.TTL = 2 * time.Minute
	}
}

// Validate checks required fields.
func (c *TokenConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("auth: token secret is required")
	}
	return nil
}

// NewTokenService creates a token service from the given config.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TokenService{cfg: cfg}, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.cfg.TTL
}

// Issue creates a signed token for the given identity, valid for the
// configured TTL from now.
func (s *TokenService) Issue(username string, access AccessLevel) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   username,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
		Username: username,
		Access:   access,
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string. Expired tokens, bad signatures
// and malformed tokens each map to their own AppError so the HTTP boundary
// can report them distinctly.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case stderrors.Is(err, gojwt.ErrTokenExpired):
			return nil, errors.TokenExpired().WithCause(err)
		case stderrors.Is(err, gojwt.ErrTokenSignatureInvalid):
			return nil, errors.InvalidToken().WithCause(err)
		default:
			return nil, errors.InvalidToken().WithCause(err)
		}
	}
	if !token.Valid || !claims.Access.Valid() {
		return nil, errors.InvalidToken()
	}
	return claims, nil
}

func (s *TokenService) keyFunc(token *gojwt.Token) (interface{}, error) {
	if token.Method.Alg() != gojwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("auth: unexpected signing method: %s", token.Method.Alg())
	}
	return []byte(s.cfg.Secret), nil
}
