// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package jwtassertion

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/clients/requests"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/config"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/models"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

// VerificationResult is the outcome of a successful bearer token verification
type VerificationResult struct {
	Subject string
	Claims  map[string]any
}

// TokenVerifier validates bearer tokens.
// Errors are *utils.AuthError with code unauthorized or auth_service_unreachable.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*VerificationResult, error)
}

// KeyResolver returns the RSA public key a token signed under kid must verify against
type KeyResolver interface {
	ResolveKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// KeyResolverFunc adapts a function to KeyResolver
type KeyResolverFunc func(ctx context.Context, kid string) (*rsa.PublicKey, error)

func (f KeyResolverFunc) ResolveKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	return f(ctx, kid)
}

// PublicKeyProvider is implemented by the server's own key manager
type PublicKeyProvider interface {
	PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// ClaimRules are the structural checks applied to locally verified tokens.
// An empty allow-list disables the respective check.
type ClaimRules struct {
	Issuers   []string
	Audiences []string
	// Leeway tolerates clock skew on exp/iat
	Leeway time.Duration
}

// jwtVerifier verifies RS256 signatures locally using keys from a KeyResolver
type jwtVerifier struct {
	keys  KeyResolver
	rules ClaimRules
}

// NewJWTVerifier creates a verifier that checks signatures locally against keys
func NewJWTVerifier(keys KeyResolver, rules ClaimRules) TokenVerifier {
	return &jwtVerifier{keys: keys, rules: rules}
}

// NewLocalVerifier verifies tokens against the server's own signing key
func NewLocalVerifier(provider PublicKeyProvider, rules ClaimRules) TokenVerifier {
	return NewJWTVerifier(KeyResolverFunc(provider.PublicKey), rules)
}

// NewTokenVerifier builds the verifier selected by cfg.Strategy
func NewTokenVerifier(cfg config.KeyManagerConfigurations) (TokenVerifier, error) {
	rules := ClaimRules{
		Issuers:   cfg.Issuer,
		Audiences: cfg.Audience,
	}
	switch cfg.Strategy {
	case config.VerifierStrategyRemoteJWKS:
		return NewJWTVerifier(NewRemoteJWKSKeySource(cfg.JWKSUrl, newRemoteClient(cfg), cfg.RequestTimeout, cfg.JWKSMinRefreshInterval), rules), nil
	case config.VerifierStrategyStaticKey:
		keys, err := NewStaticKeySource(cfg.StaticPublicKey, cfg.StaticPublicKeyPath, cfg.StaticKeyID)
		if err != nil {
			return nil, err
		}
		return NewJWTVerifier(keys, rules), nil
	case config.VerifierStrategyIntrospection:
		return NewIntrospectionVerifier(cfg.IntrospectionURL, newRemoteClient(cfg), cfg.RequestTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported token verifier strategy %q", cfg.Strategy)
	}
}

func newRemoteClient(cfg config.KeyManagerConfigurations) requests.HttpClient {
	retries := cfg.RetryAttemptsMax
	if retries == 0 {
		retries = requests.RetryAttemptsNone
	}
	return requests.NewRetryableHTTPClient(requests.RequestRetryConfig{
		RetryWaitMin:     100 * time.Millisecond,
		RetryWaitMax:     time.Second,
		RetryAttemptsMax: retries,
		AttemptTimeout:   cfg.RequestTimeout,
	})
}

func (v *jwtVerifier) Verify(ctx context.Context, tokenString string) (*VerificationResult, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		return v.keys.ResolveKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.rules.Leeway),
	)
	if err != nil {
		if errors.Is(err, utils.ErrAuthServiceUnreachable) {
			return nil, utils.Unreachable(err)
		}
		return nil, utils.Unauthorized(fmt.Errorf("failed to parse token: %w", err))
	}
	if !token.Valid {
		return nil, utils.Unauthorized(fmt.Errorf("token is not valid"))
	}

	issuer, _ := claims.GetIssuer()
	if err := validateIssuer(issuer, v.rules.Issuers); err != nil {
		return nil, utils.Unauthorized(err)
	}
	audiences, err := claims.GetAudience()
	if err != nil {
		return nil, utils.Unauthorized(err)
	}
	if err := validateAudience(audiences, v.rules.Audiences); err != nil {
		return nil, utils.Unauthorized(err)
	}
	if tokenType, _ := claims["type"].(string); tokenType == models.TokenTypeRefresh {
		return nil, utils.Unauthorized(utils.ErrRefreshTokenAsBearer)
	}

	return resultFromClaims(claims)
}

// resultFromClaims requires a non-empty string sub claim
func resultFromClaims(claims map[string]any) (*VerificationResult, error) {
	sub, ok := claims["sub"].(string)
	if !ok || strings.TrimSpace(sub) == "" {
		return nil, utils.Unauthorized(utils.ErrMissingSubject)
	}
	return &VerificationResult{Subject: sub, Claims: claims}, nil
}

// validateIssuer validates the issuer claim against allowed issuers
func validateIssuer(issuer string, allowedIssuers []string) error {
	if len(allowedIssuers) == 0 {
		return nil
	}

	trimmedIssuer := strings.TrimSpace(issuer)
	for _, allowed := range allowedIssuers {
		if strings.TrimSpace(allowed) == trimmedIssuer {
			return nil
		}
	}
	return fmt.Errorf("invalid issuer: expected one of %v, got %s", allowedIssuers, issuer)
}

// validateAudience validates the audience claim against allowed audiences
func validateAudience(audiences jwt.ClaimStrings, allowedAudiences []string) error {
	if len(allowedAudiences) == 0 {
		return nil
	}

	allowedMap := make(map[string]struct{})
	for _, allowed := range allowedAudiences {
		allowedMap[strings.TrimSpace(allowed)] = struct{}{}
	}

	// Check if any token audience is in the allowed list
	for _, aud := range audiences {
		if _, ok := allowedMap[strings.TrimSpace(aud)]; ok {
			return nil
		}
	}

	return fmt.Errorf("invalid audience: expected one of %v, got %v", allowedAudiences, audiences)
}
