// Package middleware provides HTTP middleware for bearer authentication,
// request correlation, and rate limiting.
package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims holds the parsed claims from a validated JWT.
type JWTClaims struct {
	Subject  string
	Issuer   string
	Audience []string
	// Username is the preferred_username claim, when present.
	Username string
	Email    *string
	Name     *string
	Raw      map[string]interface{}
}

// JWTValidator validates a JWT token and returns the parsed claims.
type JWTValidator interface {
	Validate(ctx context.Context, tokenString string) (*JWTClaims, error)
}

// OIDCValidator validates JWTs using OIDC discovery and JWKS.
type OIDCValidator struct {
	verifier *oidc.IDTokenVerifier
}

// HS256Validator validates JWTs signed with a shared HS256 secret.
type HS256Validator struct {
	secret   []byte
	audience string
}

// NewOIDCValidator creates a validator from an OIDC issuer URL. The issuer
// is pinned by discovery; audience is checked against the aud claim.
func NewOIDCValidator(ctx context.Context, issuerURL, audience string) (*OIDCValidator, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{
		ClientID:          audience,
		SkipClientIDCheck: audience == "",
	})
	return &OIDCValidator{verifier: verifier}, nil
}

// NewHS256Validator creates a validator for HS256 tokens. When audience is
// set, tokens must carry it.
func NewHS256Validator(secret, audience string) (*HS256Validator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &HS256Validator{secret: []byte(secret), audience: audience}, nil
}

// Validate verifies the JWT using the OIDC provider's JWKS.
func (v *OIDCValidator) Validate(ctx context.Context, tokenString string) (*JWTClaims, error) {
	idToken, err := v.verifier.Verify(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	var raw map[string]interface{}
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	claims := &JWTClaims{
		Subject:  idToken.Subject,
		Issuer:   idToken.Issuer,
		Audience: idToken.Audience,
		Raw:      raw,
	}
	fillOptionalClaims(claims, raw)
	return claims, nil
}

// Validate verifies a JWT signed with HS256 and extracts claims. Tokens
// without an expiry are rejected.
func (v *HS256Validator) Validate(_ context.Context, tokenString string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	tok, err := jwt.Parse(tokenString, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}

	claims := &JWTClaims{Raw: map[string]interface{}(raw)}
	claims.Subject, _ = raw.GetSubject()
	claims.Issuer, _ = raw.GetIssuer()
	if aud, err := raw.GetAudience(); err == nil {
		claims.Audience = []string(aud)
	}
	fillOptionalClaims(claims, raw)
	return claims, nil
}

func fillOptionalClaims(claims *JWTClaims, raw map[string]interface{}) {
	if u, ok := raw["preferred_username"].(string); ok {
		claims.Username = u
	}
	if email, ok := raw["email"].(string); ok {
		claims.Email = &email
	}
	if name, ok := raw["name"].(string); ok {
		claims.Name = &name
	}
}

// TokenRequest describes a locally issued HS256 token.
type TokenRequest struct {
	UserID   string
	Username string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// IssueHS256Token signs a token that HS256Validator accepts. It backs the
// operator CLI in development setups without an identity provider.
func IssueHS256Token(secret string, req TokenRequest, now time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT secret is required")
	}
	if req.UserID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if req.TTL <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}
	claims := jwt.MapClaims{
		"sub": req.UserID,
		"iat": now.Unix(),
		"exp": now.Add(req.TTL).Unix(),
	}
	if req.Username != "" {
		claims["preferred_username"] = req.Username
	}
	if req.Issuer != "" {
		claims["iss"] = req.Issuer
	}
	if req.Audience != "" {
		claims["aud"] = req.Audience
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
