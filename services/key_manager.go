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
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/config"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/models"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

// KeyManager owns the token signing key of the server
type KeyManager interface {
	// GetSigningKey returns the active key pair, generating it on first use
	GetSigningKey(ctx context.Context) (*KeyPair, error)
	// GetPublicKeySet returns the JSON Web Key Set for token verification
	GetPublicKeySet(ctx context.Context) (*models.JWKS, error)
	// PublicKey returns the public key registered under kid
	PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// KeyPair holds a private/public RSA key pair with its metadata
type KeyPair struct {
	KeyID      string
	Algorithm  string
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
}

type keyManager struct {
	config config.SigningConfig
	logger *slog.Logger

	generate func() (*generatedKey, error)
}

type generatedKey struct {
	pair *KeyPair
	jwks *models.JWKS
}

// NewKeyManager creates a KeyManager whose key is generated lazily, exactly once
func NewKeyManager(cfg config.SigningConfig, logger *slog.Logger) KeyManager {
	m := &keyManager{
		config: cfg,
		logger: logger,
	}
	m.generate = sync.OnceValues(m.generateKey)
	return m
}

func (m *keyManager) generateKey() (*generatedKey, error) {
	bits := m.config.KeyBits
	if bits == 0 {
		bits = 2048
	}
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		m.logger.Error("Failed to generate signing key", "bits", bits, "error", err)
		return nil, fmt.Errorf("%w: %w", utils.ErrSigningKeyUnavailable, err)
	}

	kid := m.config.KeyID
	if kid == "" {
		kid = thumbprint(&privateKey.PublicKey)
	}

	pair := &KeyPair{
		KeyID:      kid,
		Algorithm:  jwt.SigningMethodRS256.Alg(),
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}

	m.logger.Info("Generated token signing key", "keyID", kid, "bits", bits)

	return &generatedKey{
		pair: pair,
		jwks: &models.JWKS{Keys: []models.JWK{toJWK(kid, pair.PublicKey)}},
	}, nil
}

// GetSigningKey returns the active signing key pair
func (m *keyManager) GetSigningKey(ctx context.Context) (*KeyPair, error) {
	key, err := m.generate()
	if err != nil {
		return nil, err
	}
	return key.pair, nil
}

// GetPublicKeySet returns the JSON Web Key Set containing the active public key
func (m *keyManager) GetPublicKeySet(ctx context.Context) (*models.JWKS, error) {
	key, err := m.generate()
	if err != nil {
		return nil, err
	}
	keys := make([]models.JWK, len(key.jwks.Keys))
	copy(keys, key.jwks.Keys)
	return &models.JWKS{Keys: keys}, nil
}

func (m *keyManager) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	key, err := m.generate()
	if err != nil {
		return nil, err
	}
	if kid != key.pair.KeyID {
		return nil, fmt.Errorf("%w: %q", utils.ErrUnknownSigningKey, kid)
	}
	return key.pair.PublicKey, nil
}

func toJWK(kid string, publicKey *rsa.PublicKey) models.JWK {
	return models.JWK{
		Kty: "RSA",
		Alg: jwt.SigningMethodRS256.Alg(),
		Use: "sig",
		Kid: kid,
		N:   base64.RawURLEncoding.EncodeToString(publicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(publicKey.E)).Bytes()),
	}
}

// thumbprint computes the RFC 7638 SHA-256 JWK thumbprint of an RSA public key
func thumbprint(publicKey *rsa.PublicKey) string {
	jwk := toJWK("", publicKey)
	// Members in lexicographic order, no whitespace
	canonical := fmt.Sprintf(`{"e":"%s","kty":"RSA","n":"%s"}`, jwk.E, jwk.N)
	sum := sha256.Sum256([]byte(canonical))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
