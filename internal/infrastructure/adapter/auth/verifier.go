// Package auth validates bearer tokens for the balance API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/config"
)

const defaultLeeway = 30 * time.Second

// ErrNoVerifierConfigured is returned when neither a JWKS URL nor a shared secret is set
var ErrNoVerifierConfigured = errors.New("auth: jwksURL or jwtSecret must be set")

// Claims is the caller identity extracted from a verified token
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// Verifier validates JWT access tokens issued by the identity provider
type Verifier struct {
	parser  *jwt.Parser
	keyFunc jwt.Keyfunc
}

// NewVerifier prefers JWKS (RS/ES keys rotated by the identity provider) and
// falls back to an HS256 shared secret.
func NewVerifier(ctx context.Context, cfg config.AuthConfig) (*Verifier, error) {
	opts := []jwt.ParserOption{jwt.WithLeeway(defaultLeeway), jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	switch {
	case cfg.JWKSURL != "":
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL})
		if err != nil {
			return nil, fmt.Errorf("failed to init JWKS keyfunc: %w", err)
		}
		opts = append(opts, jwt.WithValidMethods([]string{
			jwt.SigningMethodRS256.Name, jwt.SigningMethodRS384.Name, jwt.SigningMethodRS512.Name,
			jwt.SigningMethodES256.Name,
		}))
		return &Verifier{parser: jwt.NewParser(opts...), keyFunc: jwks.Keyfunc}, nil

	case cfg.JWTSecret != "":
		return NewHMACVerifier([]byte(cfg.JWTSecret), opts...), nil

	default:
		return nil, ErrNoVerifierConfigured
	}
}

// NewHMACVerifier validates HS256 tokens signed with secret
func NewHMACVerifier(secret []byte, opts ...jwt.ParserOption) *Verifier {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	return &Verifier{
		parser: jwt.NewParser(opts...),
		keyFunc: func(*jwt.Token) (any, error) {
			return secret, nil
		},
	}
}

// Verify parses and validates a token, returning its claims
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, errors.New("empty token")
	}

	mapClaims := jwt.MapClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, mapClaims, v.keyFunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	subject, err := mapClaims.GetSubject()
	if err != nil || subject == "" {
		return nil, errors.New("token missing sub")
	}

	claims := &Claims{Subject: subject}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
