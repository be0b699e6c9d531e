package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/yanqian/kisanmitra/pkg/errors"
)

// CodeUnauthorized tags bearer tokens that fail verification.
const CodeUnauthorized = "unauthorized"

// Claims identifies the caller behind a bearer token. An empty Subject means anonymous.
type Claims struct {
	Subject string
	Email   string
	Role    string
}

// Anonymous reports whether the token carried no user identity.
func (c Claims) Anonymous() bool {
	return c.Subject == ""
}

// Config selects how user tokens are verified.
type Config struct {
	// JWTSecret verifies HS256 tokens signed with the project's shared secret.
	JWTSecret string
	// JWKSURL verifies asymmetric tokens against a published key set.
	JWKSURL  string
	Issuer   string
	Audience string
}

// Verifier checks bearer tokens issued by the identity provider.
type Verifier struct {
	cfg    Config
	secret []byte
	remote *oidc.IDTokenVerifier
}

// NewVerifier builds a verifier. With neither a secret nor a JWKS URL it is disabled.
func NewVerifier(ctx context.Context, cfg Config) *Verifier {
	v := &Verifier{cfg: cfg}
	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		v.secret = []byte(secret)
	}
	if url := strings.TrimSpace(cfg.JWKSURL); url != "" {
		keySet := oidc.NewRemoteKeySet(ctx, url)
		v.remote = oidc.NewVerifier(cfg.Issuer, keySet, &oidc.Config{
			ClientID:             cfg.Audience,
			SkipClientIDCheck:    cfg.Audience == "",
			SkipIssuerCheck:      cfg.Issuer == "",
			SupportedSigningAlgs: []string{oidc.RS256, oidc.ES256},
		})
	}
	return v
}

// Enabled reports whether any verification method is configured.
func (v *Verifier) Enabled() bool {
	return v != nil && (v.secret != nil || v.remote != nil)
}

// Verify validates raw and returns its claims. Tokens without a subject, such as
// the public anon key, carry no identity and resolve to anonymous claims.
func (v *Verifier) Verify(ctx context.Context, raw string) (Claims, error) {
	peeked, err := peek(raw)
	if err != nil {
		return Claims{}, invalidToken(err)
	}
	if peeked.Subject == "" {
		return Claims{Role: peeked.Role}, nil
	}

	var lastErr error
	if v.secret != nil {
		claims, err := v.verifyHMAC(raw)
		if err == nil {
			return claims, nil
		}
		lastErr = err
	}
	if v.remote != nil {
		claims, err := v.verifyRemote(ctx, raw)
		if err == nil {
			return claims, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no verification method configured")
	}
	return Claims{}, invalidToken(lastErr)
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

func peek(raw string) (tokenClaims, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return tokenClaims{}, err
	}
	return claims, nil
}

func (v *Verifier) verifyHMAC(raw string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}
	parsed, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("token invalid")
	}
	return Claims{Subject: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

func (v *Verifier) verifyRemote(ctx context.Context, raw string) (Claims, error) {
	idToken, err := v.remote.Verify(ctx, raw)
	if err != nil {
		return Claims{}, err
	}
	var extra struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := idToken.Claims(&extra); err != nil {
		return Claims{}, err
	}
	return Claims{Subject: idToken.Subject, Email: extra.Email, Role: extra.Role}, nil
}

func invalidToken(err error) error {
	return apperrors.Wrap(CodeUnauthorized, "Invalid or expired token.", err)
}
