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
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/clients/requests"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/models"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

// RemoteJWKSKeySource resolves signing keys from a remote JWKS endpoint.
// Keys are cached by kid and the set is re-fetched when an unknown kid is seen.
type RemoteJWKSKeySource struct {
	url        string
	client     requests.HttpClient
	timeout    time.Duration
	minRefresh time.Duration
	now        func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	lastFetch time.Time

	group singleflight.Group
}

// NewRemoteJWKSKeySource creates a key source for jwksURL.
// minRefresh throttles re-fetches triggered by unknown key ids.
func NewRemoteJWKSKeySource(jwksURL string, client requests.HttpClient, timeout, minRefresh time.Duration) *RemoteJWKSKeySource {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = requests.DefaultAttemptTimeout
	}
	return &RemoteJWKSKeySource{
		url:        jwksURL,
		client:     client,
		timeout:    timeout,
		minRefresh: minRefresh,
		now:        time.Now,
		keys:       map[string]*rsa.PublicKey{},
	}
}

func (s *RemoteJWKSKeySource) ResolveKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, fmt.Errorf("kid not found in token header")
	}
	if key, ok := s.cached(kid); ok {
		return key, nil
	}

	_, err, _ := s.group.Do("jwks", func() (interface{}, error) {
		s.mu.RLock()
		throttled := !s.lastFetch.IsZero() && s.now().Sub(s.lastFetch) < s.minRefresh
		s.mu.RUnlock()
		if throttled {
			return nil, nil
		}
		// Shared by every waiter, so it must outlive the caller that started it
		return nil, s.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}

	if key, ok := s.cached(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: unable to find key with kid: %s", utils.ErrUnknownSigningKey, kid)
}

func (s *RemoteJWKSKeySource) cached(kid string) (*rsa.PublicKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[kid]
	return key, ok
}

// refresh replaces the cached key set; keys missing from the new set are dropped
func (s *RemoteJWKSKeySource) refresh(ctx context.Context) error {
	log := logger.GetLogger(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := &requests.HttpRequest{
		Name:   "jwtassertion.fetchJWKS",
		URL:    s.url,
		Method: http.MethodGet,
	}
	var jwks models.JWKS
	if err := requests.SendRequest(ctx, s.client, req).ScanResponse(&jwks, http.StatusOK); err != nil {
		log.Error("Failed to fetch JWKS", "url", s.url, "error", err)
		return fmt.Errorf("%w: failed to fetch JWKS: %w", utils.ErrAuthServiceUnreachable, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, jwk := range jwks.Keys {
		if jwk.Kty != "RSA" || (jwk.Alg != "" && jwk.Alg != "RS256") || (jwk.Use != "" && jwk.Use != "sig") {
			continue
		}
		key, err := convertJWKToPublicKey(&jwk)
		if err != nil {
			log.Warn("Skipping malformed JWK", "kid", jwk.Kid, "error", err)
			continue
		}
		keys[jwk.Kid] = key
	}

	s.mu.Lock()
	s.keys = keys
	s.lastFetch = s.now()
	s.mu.Unlock()

	log.Info("JWKS refreshed", "url", s.url, "keys", len(keys))
	return nil
}

// convertJWKToPublicKey converts a JWK to an RSA public key
func convertJWKToPublicKey(jwk *models.JWK) (*rsa.PublicKey, error) {
	// Decode the modulus (n)
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	// Decode the exponent (e)
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	if len(nBytes) == 0 || len(eBytes) == 0 || len(eBytes) > 4 {
		return nil, fmt.Errorf("invalid RSA key parameters")
	}

	// Convert bytes to big.Int for modulus
	n := new(big.Int).SetBytes(nBytes)

	// Convert bytes to int for exponent
	var e int
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}

	return &rsa.PublicKey{
		N: n,
		E: e,
	}, nil
}
