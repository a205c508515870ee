package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/golang-jwt/jwt/v5"
)

var errEmptySecret = errors.New("token secret is empty")

// TokenAuthenticator verifies and mints deploy tokens (HS256)
type TokenAuthenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenAuthenticator creates a deploy token authenticator.
// ttl is the default lifetime of issued tokens.
func NewTokenAuthenticator(secret string, ttl time.Duration) (*TokenAuthenticator, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	return &TokenAuthenticator{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Authenticate verifies token and returns its claims verbatim.
// Every failure, including an empty token, is models.ErrUnauthenticated.
func (a *TokenAuthenticator) Authenticate(token string) (*models.DeployClaims, error) {
	claims := &models.DeployClaims{}
	if err := parseHS256(token, a.secret, claims, a.now); err != nil {
		return nil, &models.IngestError{Kind: models.KindUnauthenticated, Message: models.ErrUnauthenticated.Message, Err: err}
	}
	return claims, nil
}

// Issue mints a deploy token for a remote environment. A zero ttl uses the default.
func (a *TokenAuthenticator) Issue(appID, source string, scopes []string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = a.ttl
	}
	now := a.now()
	claims := &models.DeployClaims{
		Type:   models.TokenTypeDeploy,
		AppID:  appID,
		Source: source,
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return sign(claims, a.secret)
}

// AuthorTokens verifies and mints the bearer tokens of local authors
type AuthorTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthorTokens creates an author token verifier
func NewAuthorTokens(secret string, ttl time.Duration) (*AuthorTokens, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	return &AuthorTokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Verify returns the claims of a valid author token
func (a *AuthorTokens) Verify(token string) (*models.AuthorClaims, error) {
	claims := &models.AuthorClaims{}
	if err := parseHS256(token, a.secret, claims, a.now); err != nil {
		return nil, err
	}
	if claims.UID == "" {
		return nil, errors.New("token has no uid")
	}
	return claims, nil
}

// Issue mints an author token for uid. A zero ttl uses the default.
func (a *AuthorTokens) Issue(uid string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = a.ttl
	}
	now := a.now()
	return sign(&models.AuthorClaims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}, a.secret)
}

func sign(claims jwt.Claims, secret []byte) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func parseHS256(token string, secret []byte, claims jwt.Claims, now func() time.Time) error {
	if token == "" {
		return errors.New("token is empty")
	}

	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	return err
}
