// Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
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
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/config"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/models"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/services"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

const (
	testIssuer   = "http://localhost:5000"
	testClientID = "c1"
)

var testSubject = models.SubjectClaims{Subject: "mock-user-123", Name: "Mock User", Email: "mock@example.com"}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// authServer bundles a key manager, an issuer and a JWKS endpoint serving the key manager's keys
type authServer struct {
	keyManager services.KeyManager
	issuer     services.TokenIssuer
	jwks       *httptest.Server
	jwksCalls  atomic.Int32
}

func newAuthServer(t *testing.T, kid string) *authServer {
	t.Helper()
	s := &authServer{}
	s.keyManager = services.NewKeyManager(config.SigningConfig{KeyID: kid, KeyBits: 2048}, testLogger())
	s.issuer = services.NewTokenIssuer(s.keyManager, config.OAuthConfig{
		Issuer:          testIssuer,
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}, testLogger())
	s.jwks = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.jwksCalls.Add(1)
		jwks, err := s.keyManager.GetPublicKeySet(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		utils.WriteSuccessResponse(w, http.StatusOK, jwks)
	}))
	t.Cleanup(s.jwks.Close)
	return s
}

func (s *authServer) issue(t *testing.T, clientID string) *models.TokenPair {
	t.Helper()
	pair, err := s.issuer.IssueTokenPair(context.Background(), clientID, testSubject)
	require.NoError(t, err)
	return pair
}

// sign mints a token with arbitrary claims under the server's signing key
func (s *authServer) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	kp, err := s.keyManager.GetSigningKey(context.Background())
	require.NoError(t, err)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kp.KeyID
	signed, err := token.SignedString(kp.PrivateKey)
	require.NoError(t, err)
	return signed
}

func (s *authServer) publicKeyPEM(t *testing.T) string {
	t.Helper()
	kp, err := s.keyManager.GetSigningKey(context.Background())
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(kp.PublicKey)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func (s *authServer) remoteVerifier(rules ClaimRules) TokenVerifier {
	return NewJWTVerifier(NewRemoteJWKSKeySource(s.jwks.URL, nil, time.Second, 0), rules)
}

// withHeader rewrites the token header, keeping the original signature
func withHeader(t *testing.T, token string, mutate func(map[string]any)) string {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	header := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &header))
	mutate(header)
	raw, err = json.Marshal(header)
	require.NoError(t, err)
	parts[0] = base64.RawURLEncoding.EncodeToString(raw)
	return strings.Join(parts, ".")
}

func baseClaims(clientID string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub": testSubject.Subject,
		"iss": testIssuer,
		"aud": clientID,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, utils.ErrorCodeUnauthorized, utils.ErrorCodeOf(err))
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
}

func TestRemoteJWKSVerifier(t *testing.T) {
	server := newAuthServer(t, "")
	rules := ClaimRules{Issuers: []string{testIssuer}, Audiences: []string{testClientID}}

	t.Run("Round trip", func(t *testing.T) {
		pair := server.issue(t, testClientID)
		result, err := server.remoteVerifier(rules).Verify(context.Background(), pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "mock-user-123", result.Subject)
		assert.Equal(t, "mock@example.com", result.Claims["email"])
	})

	t.Run("Altered kid is rejected", func(t *testing.T) {
		pair := server.issue(t, testClientID)
		token := withHeader(t, pair.AccessToken, func(h map[string]any) { h["kid"] = "other" })
		_, err := server.remoteVerifier(rules).Verify(context.Background(), token)
		assertUnauthorized(t, err)
		assert.ErrorIs(t, err, utils.ErrUnknownSigningKey)
	})

	t.Run("Missing kid is rejected", func(t *testing.T) {
		pair := server.issue(t, testClientID)
		token := withHeader(t, pair.AccessToken, func(h map[string]any) { delete(h, "kid") })
		_, err := server.remoteVerifier(rules).Verify(context.Background(), token)
		assertUnauthorized(t, err)
	})

	t.Run("Expired token is rejected", func(t *testing.T) {
		claims := baseClaims(testClientID)
		claims["iat"] = time.Now().Add(-2 * time.Hour).Unix()
		claims["exp"] = time.Now().Add(-time.Hour).Unix()
		_, err := server.remoteVerifier(rules).Verify(context.Background(), server.sign(t, claims))
		assertUnauthorized(t, err)
	})

	t.Run("Token without exp is rejected", func(t *testing.T) {
		claims := baseClaims(testClientID)
		delete(claims, "exp")
		_, err := server.remoteVerifier(rules).Verify(context.Background(), server.sign(t, claims))
		assertUnauthorized(t, err)
	})

	t.Run("Other audience is rejected", func(t *testing.T) {
		pair := server.issue(t, "c2")
		_, err := server.remoteVerifier(rules).Verify(context.Background(), pair.AccessToken)
		assertUnauthorized(t, err)
	})

	t.Run("Empty audience allow-list accepts any audience", func(t *testing.T) {
		pair := server.issue(t, "c2")
		_, err := server.remoteVerifier(ClaimRules{Issuers: []string{testIssuer}}).Verify(context.Background(), pair.AccessToken)
		assert.NoError(t, err)
	})

	t.Run("Other issuer is rejected", func(t *testing.T) {
		claims := baseClaims(testClientID)
		claims["iss"] = "https://evil.example"
		_, err := server.remoteVerifier(rules).Verify(context.Background(), server.sign(t, claims))
		assertUnauthorized(t, err)
	})

	t.Run("Missing subject is rejected", func(t *testing.T) {
		claims := baseClaims(testClientID)
		delete(claims, "sub")
		_, err := server.remoteVerifier(rules).Verify(context.Background(), server.sign(t, claims))
		assertUnauthorized(t, err)
		assert.ErrorIs(t, err, utils.ErrMissingSubject)
	})

	t.Run("Refresh token is not a bearer credential", func(t *testing.T) {
		pair := server.issue(t, testClientID)
		_, err := server.remoteVerifier(rules).Verify(context.Background(), pair.RefreshToken)
		assertUnauthorized(t, err)
		assert.ErrorIs(t, err, utils.ErrRefreshTokenAsBearer)
	})

	t.Run("Other algorithms are rejected", func(t *testing.T) {
		claims := baseClaims(testClientID)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = server.remoteVerifier(rules).Verify(context.Background(), token)
		assertUnauthorized(t, err)
	})

	t.Run("Garbage is rejected", func(t *testing.T) {
		_, err := server.remoteVerifier(rules).Verify(context.Background(), "not-a-jwt")
		assertUnauthorized(t, err)
	})
}

func TestRemoteJWKSKeySource(t *testing.T) {
	t.Run("Keys are cached by kid", func(t *testing.T) {
		server := newAuthServer(t, "k1")
		verifier := server.remoteVerifier(ClaimRules{})

		for i := 0; i < 5; i++ {
			_, err := verifier.Verify(context.Background(), server.issue(t, testClientID).AccessToken)
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), server.jwksCalls.Load())
	})

	t.Run("Rotation triggers a re-fetch", func(t *testing.T) {
		first := newAuthServer(t, "k1")
		second := newAuthServer(t, "k2")

		var current atomic.Pointer[authServer]
		current.Store(first)
		jwks := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			set, err := current.Load().keyManager.GetPublicKeySet(r.Context())
			require.NoError(t, err)
			utils.WriteSuccessResponse(w, http.StatusOK, set)
		}))
		defer jwks.Close()

		verifier := NewJWTVerifier(NewRemoteJWKSKeySource(jwks.URL, nil, time.Second, 0), ClaimRules{})

		_, err := verifier.Verify(context.Background(), first.issue(t, testClientID).AccessToken)
		require.NoError(t, err)

		current.Store(second)
		_, err = verifier.Verify(context.Background(), second.issue(t, testClientID).AccessToken)
		require.NoError(t, err)

		// The rotated-out key is no longer trusted after the refresh
		_, err = verifier.Verify(context.Background(), first.issue(t, testClientID).AccessToken)
		assertUnauthorized(t, err)
	})

	t.Run("Unknown kid re-fetches are throttled", func(t *testing.T) {
		server := newAuthServer(t, "k1")
		source := NewRemoteJWKSKeySource(server.jwks.URL, nil, time.Second, time.Hour)

		_, err := source.ResolveKey(context.Background(), "k1")
		require.NoError(t, err)
		_, err = source.ResolveKey(context.Background(), "unknown")
		assert.ErrorIs(t, err, utils.ErrUnknownSigningKey)
		assert.Equal(t, int32(1), server.jwksCalls.Load())
	})

	t.Run("Concurrent unknown kids share one fetch", func(t *testing.T) {
		release := make(chan struct{})
		var calls atomic.Int32
		server := newAuthServer(t, "k1")
		jwks := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			<-release
			set, _ := server.keyManager.GetPublicKeySet(r.Context())
			utils.WriteSuccessResponse(w, http.StatusOK, set)
		}))
		defer jwks.Close()

		source := NewRemoteJWKSKeySource(jwks.URL, nil, 5*time.Second, 0)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := source.ResolveKey(context.Background(), "k1")
				assert.NoError(t, err)
			}()
		}
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("Shared fetch survives the initiating caller going away", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		server := newAuthServer(t, "k1")
		jwks := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-release
			set, _ := server.keyManager.GetPublicKeySet(r.Context())
			utils.WriteSuccessResponse(w, http.StatusOK, set)
		}))
		defer jwks.Close()

		source := NewRemoteJWKSKeySource(jwks.URL, nil, 5*time.Second, 0)
		ctx, cancel := context.WithCancel(context.Background())
		first := make(chan error, 1)
		go func() {
			_, err := source.ResolveKey(ctx, "k1")
			first <- err
		}()
		<-started

		second := make(chan error, 1)
		go func() {
			_, err := source.ResolveKey(context.Background(), "k1")
			second <- err
		}()
		time.Sleep(50 * time.Millisecond)
		cancel()
		close(release)

		assert.NoError(t, <-second)
		assert.NoError(t, <-first)
	})

	t.Run("Unreachable JWKS fails closed", func(t *testing.T) {
		server := newAuthServer(t, "")
		down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer down.Close()

		verifier := NewJWTVerifier(NewRemoteJWKSKeySource(down.URL, nil, time.Second, 0), ClaimRules{})
		_, err := verifier.Verify(context.Background(), server.issue(t, testClientID).AccessToken)
		require.Error(t, err)
		assert.Equal(t, utils.ErrorCodeAuthServiceUnreachable, utils.ErrorCodeOf(err))
		assert.ErrorIs(t, err, utils.ErrAuthServiceUnreachable)
	})

	t.Run("JWKS timeout fails closed", func(t *testing.T) {
		server := newAuthServer(t, "")
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer slow.Close()

		verifier := NewJWTVerifier(NewRemoteJWKSKeySource(slow.URL, nil, 50*time.Millisecond, 0), ClaimRules{})
		_, err := verifier.Verify(context.Background(), server.issue(t, testClientID).AccessToken)
		assert.Equal(t, utils.ErrorCodeAuthServiceUnreachable, utils.ErrorCodeOf(err))
	})
}

func TestStaticKeyVerifier(t *testing.T) {
	server := newAuthServer(t, "k1")
	rules := ClaimRules{Issuers: []string{testIssuer}, Audiences: []string{testClientID}}

	t.Run("Round trip from PEM value", func(t *testing.T) {
		keys, err := NewStaticKeySource(server.publicKeyPEM(t), "", "")
		require.NoError(t, err)

		result, err := NewJWTVerifier(keys, rules).Verify(context.Background(), server.issue(t, testClientID).AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "mock-user-123", result.Subject)
	})

	t.Run("Escaped newlines in PEM value", func(t *testing.T) {
		escaped := strings.ReplaceAll(server.publicKeyPEM(t), "\n", `\n`)
		_, err := NewStaticKeySource(escaped, "", "")
		assert.NoError(t, err)
	})

	t.Run("Round trip from PEM file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "public.pem")
		require.NoError(t, os.WriteFile(path, []byte(server.publicKeyPEM(t)), 0o600))
		keys, err := NewStaticKeySource("", path, "k1")
		require.NoError(t, err)

		_, err = NewJWTVerifier(keys, rules).Verify(context.Background(), server.issue(t, testClientID).AccessToken)
		assert.NoError(t, err)
	})

	t.Run("Altered kid is rejected", func(t *testing.T) {
		keys, err := NewStaticKeySource(server.publicKeyPEM(t), "", "k1")
		require.NoError(t, err)

		token := withHeader(t, server.issue(t, testClientID).AccessToken, func(h map[string]any) { h["kid"] = "k2" })
		_, err = NewJWTVerifier(keys, rules).Verify(context.Background(), token)
		assertUnauthorized(t, err)
	})

	t.Run("Token from another key is rejected", func(t *testing.T) {
		other := newAuthServer(t, "k1")
		keys, err := NewStaticKeySource(server.publicKeyPEM(t), "", "k1")
		require.NoError(t, err)

		_, err = NewJWTVerifier(keys, rules).Verify(context.Background(), other.issue(t, testClientID).AccessToken)
		assertUnauthorized(t, err)
	})

	t.Run("Expired token is rejected", func(t *testing.T) {
		keys, err := NewStaticKeySource(server.publicKeyPEM(t), "", "")
		require.NoError(t, err)

		claims := baseClaims(testClientID)
		claims["exp"] = time.Now().Add(-time.Minute).Unix()
		_, err = NewJWTVerifier(keys, rules).Verify(context.Background(), server.sign(t, claims))
		assertUnauthorized(t, err)
	})

	t.Run("Invalid PEM is a configuration error", func(t *testing.T) {
		_, err := NewStaticKeySource("not a pem", "", "")
		assert.Error(t, err)
		_, err = NewStaticKeySource("", "", "")
		assert.Error(t, err)
	})
}

func TestLocalVerifier(t *testing.T) {
	server := newAuthServer(t, "")
	verifier := NewLocalVerifier(server.keyManager, ClaimRules{Issuers: []string{testIssuer}})

	result, err := verifier.Verify(context.Background(), server.issue(t, testClientID).AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "mock-user-123", result.Subject)
	assert.Zero(t, server.jwksCalls.Load())
}

func TestIntrospectionVerifier(t *testing.T) {
	newIntrospector := func(t *testing.T, handler http.HandlerFunc) *httptest.Server {
		server := httptest.NewServer(handler)
		t.Cleanup(server.Close)
		return server
	}

	t.Run("Active token is accepted", func(t *testing.T) {
		server := newIntrospector(t, func(w http.ResponseWriter, r *http.Request) {
			var req models.IntrospectionRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "tok", req.Token)
			_, _ = w.Write([]byte(`{"active":true,"sub":"mock-user-123","email":"mock@example.com"}`))
		})

		result, err := NewIntrospectionVerifier(server.URL, nil, time.Second).Verify(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "mock-user-123", result.Subject)
		assert.Equal(t, "mock@example.com", result.Claims["email"])
	})

	t.Run("Inactive token is unauthorized", func(t *testing.T) {
		server := newIntrospector(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"active":false}`))
		})

		_, err := NewIntrospectionVerifier(server.URL, nil, time.Second).Verify(context.Background(), "tok")
		assertUnauthorized(t, err)
		assert.ErrorIs(t, err, utils.ErrTokenInactive)
	})

	t.Run("Non boolean active is unauthorized", func(t *testing.T) {
		server := newIntrospector(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"active":"true","sub":"mock-user-123"}`))
		})

		_, err := NewIntrospectionVerifier(server.URL, nil, time.Second).Verify(context.Background(), "tok")
		assertUnauthorized(t, err)
	})

	t.Run("Active token without subject is unauthorized", func(t *testing.T) {
		server := newIntrospector(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"active":true,"sub":""}`))
		})

		_, err := NewIntrospectionVerifier(server.URL, nil, time.Second).Verify(context.Background(), "tok")
		assert.ErrorIs(t, err, utils.ErrMissingSubject)
	})

	t.Run("Server error fails closed", func(t *testing.T) {
		server := newIntrospector(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"active":true,"sub":"mock-user-123"}`))
		})

		_, err := NewIntrospectionVerifier(server.URL, nil, time.Second).Verify(context.Background(), "tok")
		assert.Equal(t, utils.ErrorCodeAuthServiceUnreachable, utils.ErrorCodeOf(err))
	})

	t.Run("Timeout fails closed", func(t *testing.T) {
		server := newIntrospector(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})

		_, err := NewIntrospectionVerifier(server.URL, nil, 50*time.Millisecond).Verify(context.Background(), "tok")
		assert.Equal(t, utils.ErrorCodeAuthServiceUnreachable, utils.ErrorCodeOf(err))
	})

	t.Run("Malformed response fails closed", func(t *testing.T) {
		server := newIntrospector(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		})

		_, err := NewIntrospectionVerifier(server.URL, nil, time.Second).Verify(context.Background(), "tok")
		assert.Equal(t, utils.ErrorCodeAuthServiceUnreachable, utils.ErrorCodeOf(err))
	})
}

func TestNewTokenVerifier(t *testing.T) {
	server := newAuthServer(t, "k1")

	t.Run("Each strategy is selectable", func(t *testing.T) {
		for _, cfg := range []config.KeyManagerConfigurations{
			{Strategy: config.VerifierStrategyRemoteJWKS, JWKSUrl: server.jwks.URL, RequestTimeout: time.Second},
			{Strategy: config.VerifierStrategyStaticKey, StaticPublicKey: server.publicKeyPEM(t), RequestTimeout: time.Second},
		} {
			verifier, err := NewTokenVerifier(cfg)
			require.NoError(t, err, cfg.Strategy)
			_, err = verifier.Verify(context.Background(), server.issue(t, testClientID).AccessToken)
			assert.NoError(t, err, cfg.Strategy)
		}

		verifier, err := NewTokenVerifier(config.KeyManagerConfigurations{
			Strategy: config.VerifierStrategyIntrospection, IntrospectionURL: "http://127.0.0.1:1", RequestTimeout: time.Second,
		})
		require.NoError(t, err)
		assert.NotNil(t, verifier)
	})

	t.Run("Unknown strategy is an error", func(t *testing.T) {
		_, err := NewTokenVerifier(config.KeyManagerConfigurations{Strategy: "none"})
		assert.Error(t, err)
	})
}
