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

package authsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/models"
)

// ErrSessionExpired is returned when no usable access token is cached
var ErrSessionExpired = errors.New("session expired or not logged in")

// expiryBuffer is the time before actual expiry when we consider the token expired
// This prevents using tokens that are about to expire during in-flight requests
const expiryBuffer = 30 * time.Second

// Session caches the token pair obtained from an authorization code exchange
type Session interface {
	// Login redeems code and caches the resulting tokens
	Login(ctx context.Context, code, redirectURI string) error
	// AccessToken returns the cached access token while it is still valid
	AccessToken() (string, error)
	RefreshToken() string
	Logout()
}

type session struct {
	client       AuthServiceClient
	clientID     string
	clientSecret string
	now          func() time.Time

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// NewSession creates an empty session for clientID
func NewSession(client AuthServiceClient, clientID, clientSecret string) Session {
	return newSessionWithClock(client, clientID, clientSecret, time.Now)
}

func newSessionWithClock(client AuthServiceClient, clientID, clientSecret string, now func() time.Time) *session {
	return &session{
		client:       client,
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          now,
	}
}

func (s *session) Login(ctx context.Context, code, redirectURI string) error {
	tokens, err := s.client.ExchangeCode(ctx, models.TokenExchangeRequest{
		GrantType:    models.GrantTypeAuthorizationCode,
		Code:         code,
		RedirectURI:  redirectURI,
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
	})
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if tokens.ExpiresIn <= 0 {
		return fmt.Errorf("invalid expires_in value: %d (must be positive)", tokens.ExpiresIn)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = tokens.AccessToken
	s.refreshToken = tokens.RefreshToken
	s.expiresAt = s.now().Add(time.Duration(tokens.ExpiresIn) * time.Second)

	slog.Info("authsvc: session established",
		"clientID", s.clientID,
		"expires_at", s.expiresAt.Format(time.RFC3339))
	return nil
}

func (s *session) AccessToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isTokenValid() {
		return "", ErrSessionExpired
	}
	return s.accessToken, nil
}

func (s *session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
}

// isTokenValid must be called with at least a read lock held
func (s *session) isTokenValid() bool {
	if s.accessToken == "" {
		return false
	}
	return s.now().Add(expiryBuffer).Before(s.expiresAt)
}
