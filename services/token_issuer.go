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

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/config"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/models"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

// TokenIssuer mints signed access and refresh tokens
type TokenIssuer interface {
	// IssueTokenPair creates an access/refresh token pair for the subject, audience-bound to clientID
	IssueTokenPair(ctx context.Context, clientID string, subject models.SubjectClaims) (*models.TokenPair, error)
}

// AccessTokenClaims represents the claims of an access token.
// Audience shadows the embedded list so aud is serialized as a single string.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Audience string `json:"aud,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// GetAudience implements jwt.Claims
func (c AccessTokenClaims) GetAudience() (jwt.ClaimStrings, error) {
	return audienceOf(c.Audience), nil
}

// RefreshTokenClaims represents the claims of a refresh token
type RefreshTokenClaims struct {
	jwt.RegisteredClaims
	Audience string `json:"aud,omitempty"`
	Type     string `json:"type"`
}

// GetAudience implements jwt.Claims
func (c RefreshTokenClaims) GetAudience() (jwt.ClaimStrings, error) {
	return audienceOf(c.Audience), nil
}

func audienceOf(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}

type tokenIssuer struct {
	keyManager KeyManager
	config     config.OAuthConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewTokenIssuer creates a new TokenIssuer instance
func NewTokenIssuer(keyManager KeyManager, cfg config.OAuthConfig, logger *slog.Logger) TokenIssuer {
	return &tokenIssuer{
		keyManager: keyManager,
		config:     cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *tokenIssuer) IssueTokenPair(ctx context.Context, clientID string, subject models.SubjectClaims) (*models.TokenPair, error) {
	keyPair, err := s.keyManager.GetSigningKey(ctx)
	if err != nil {
		s.logger.Error("Failed to get signing key", "error", err)
		return nil, utils.NewAuthError(utils.ErrorCodeServerError, err)
	}

	// Second precision keeps iat/exp aligned with expires_in
	now := s.now().Truncate(time.Second)
	accessExpiresAt := now.Add(s.config.AccessTokenTTL)

	accessClaims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   subject.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
			ID:        uuid.NewString(),
		},
		Audience: clientID,
		Name:     subject.Name,
		Email:    subject.Email,
	}
	accessToken, err := s.sign(accessClaims, keyPair)
	if err != nil {
		return nil, err
	}

	refreshClaims := RefreshTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   subject.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.RefreshTokenTTL)),
			ID:        uuid.NewString(),
		},
		Audience: clientID,
		Type:     models.TokenTypeRefresh,
	}
	refreshToken, err := s.sign(refreshClaims, keyPair)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Token pair issued",
		"clientID", clientID,
		"subject", subject.Subject,
		"expiresAt", accessExpiresAt,
		"keyID", keyPair.KeyID,
	)

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		KeyID:        keyPair.KeyID,
		IssuedAt:     now.Unix(),
		ExpiresIn:    int64(s.config.AccessTokenTTL / time.Second),
	}, nil
}

func (s *tokenIssuer) sign(claims jwt.Claims, keyPair *KeyPair) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = keyPair.KeyID

	signedToken, err := token.SignedString(keyPair.PrivateKey)
	if err != nil {
		s.logger.Error("Failed to sign token", "error", err)
		return "", utils.NewAuthError(utils.ErrorCodeServerError, fmt.Errorf("failed to sign token: %w", err))
	}
	return signedToken, nil
}
