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

package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/config"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/models"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

const authorizationCodeBytes = 32

// AuthorizationCodeStore tracks single-use authorization codes
type AuthorizationCodeStore interface {
	// Issue mints a new code bound to the client and redirect URI
	Issue(clientID, redirectURI string) (string, error)
	// Register records a code minted outside the store, e.g. by the login page
	Register(code, clientID, redirectURI string) error
	// Consume validates and invalidates a code. At most one caller succeeds per code.
	Consume(code, clientID, redirectURI string) error
}

type authorizationCodeStore struct {
	mu    sync.Mutex
	codes map[string]*models.AuthorizationCode

	ttl          time.Duration
	devMode      bool
	externalCode string
	now          func() time.Time
	logger       *slog.Logger
}

// NewAuthorizationCodeStore creates an in-memory code store using the wall clock
func NewAuthorizationCodeStore(cfg config.OAuthConfig, logger *slog.Logger) AuthorizationCodeStore {
	return NewAuthorizationCodeStoreWithClock(cfg, logger, time.Now)
}

// NewAuthorizationCodeStoreWithClock creates an in-memory code store reading time from now
func NewAuthorizationCodeStoreWithClock(cfg config.OAuthConfig, logger *slog.Logger, now func() time.Time) AuthorizationCodeStore {
	ttl := cfg.AuthorizationCodeTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &authorizationCodeStore{
		codes:        make(map[string]*models.AuthorizationCode),
		ttl:          ttl,
		devMode:      cfg.DevMode,
		externalCode: cfg.ExternalCodePrefix,
		now:          now,
		logger:       logger,
	}
}

func (s *authorizationCodeStore) Issue(clientID, redirectURI string) (string, error) {
	buf := make([]byte, authorizationCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate authorization code: %w", err)
	}
	code := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeLocked(now)
	s.codes[code] = s.newCode(code, clientID, redirectURI, now)

	s.logger.Debug("Issued authorization code", "clientID", clientID)
	return code, nil
}

func (s *authorizationCodeStore) Register(code, clientID, redirectURI string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeLocked(now)

	if existing, ok := s.codes[code]; ok {
		switch {
		case existing.State == models.AuthorizationCodeConsumed:
			return utils.InvalidGrant(utils.ErrCodeAlreadyUsed)
		case existing.State == models.AuthorizationCodeExpired || existing.IsExpired(now):
			existing.State = models.AuthorizationCodeExpired
			return utils.InvalidGrant(utils.ErrCodeExpired)
		default:
			if existing.ClientID != clientID || existing.RedirectURI != redirectURI {
				return utils.NewAuthError(utils.ErrorCodeInvalidRequest, utils.ErrCodeAlreadyExists)
			}
			return nil
		}
	}

	s.codes[code] = s.newCode(code, clientID, redirectURI, now)
	s.logger.Debug("Registered authorization code", "clientID", clientID)
	return nil
}

func (s *authorizationCodeStore) Consume(code, clientID, redirectURI string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if entry, ok := s.codes[code]; ok {
		switch {
		case entry.State == models.AuthorizationCodeConsumed:
			return utils.InvalidGrant(utils.ErrCodeAlreadyUsed)
		case entry.State == models.AuthorizationCodeExpired || entry.IsExpired(now):
			entry.State = models.AuthorizationCodeExpired
			return utils.InvalidGrant(utils.ErrCodeExpired)
		case entry.ClientID != clientID || entry.RedirectURI != redirectURI:
			return utils.InvalidGrant(utils.ErrCodeMismatch)
		}
		entry.State = models.AuthorizationCodeConsumed
		return nil
	}

	if s.externalCode != "" && strings.HasPrefix(code, s.externalCode) {
		issuedAt, err := s.externalIssuedAt(code, now)
		if err != nil {
			return err
		}
		s.tombstoneLocked(code, clientID, redirectURI, issuedAt)
		return nil
	}

	if !s.devMode {
		return utils.InvalidGrant(utils.ErrCodeInvalid)
	}
	s.logger.Warn("Accepting unregistered authorization code in development mode",
		"clientID", clientID,
		"codePrefix", truncate(code, 20),
	)
	s.tombstoneLocked(code, clientID, redirectURI, now)
	return nil
}

// externalIssuedAt decodes the issuance time of a prefix<unix-millis>_<suffix> code
func (s *authorizationCodeStore) externalIssuedAt(code string, now time.Time) (time.Time, error) {
	rest := strings.TrimPrefix(code, s.externalCode)
	millis, suffix, found := strings.Cut(rest, "_")
	if !found || suffix == "" {
		return time.Time{}, utils.InvalidGrant(utils.ErrCodeInvalid)
	}
	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil || ms < 0 {
		return time.Time{}, utils.InvalidGrant(utils.ErrCodeInvalid)
	}

	issuedAt := time.UnixMilli(ms)
	age := now.Sub(issuedAt)
	if age < 0 {
		return time.Time{}, utils.InvalidGrant(fmt.Errorf("%w: issued in the future", utils.ErrCodeInvalid))
	}
	if age >= s.ttl {
		return time.Time{}, utils.InvalidGrant(utils.ErrCodeExpired)
	}
	return issuedAt, nil
}

func (s *authorizationCodeStore) newCode(code, clientID, redirectURI string, now time.Time) *models.AuthorizationCode {
	return &models.AuthorizationCode{
		Code:        code,
		ClientID:    clientID,
		RedirectURI: redirectURI,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.ttl),
		State:       models.AuthorizationCodeIssued,
	}
}

// tombstoneLocked records a code accepted without prior registration so that a replay is rejected
func (s *authorizationCodeStore) tombstoneLocked(code, clientID, redirectURI string, issuedAt time.Time) {
	entry := s.newCode(code, clientID, redirectURI, issuedAt)
	entry.State = models.AuthorizationCodeConsumed
	s.codes[code] = entry
}

// purgeLocked drops dead entries once they are a full TTL past expiry.
// Dead entries are retained that long so replays and late exchanges still see their final state.
func (s *authorizationCodeStore) purgeLocked(now time.Time) {
	for code, entry := range s.codes {
		if !now.Before(entry.ExpiresAt.Add(s.ttl)) {
			delete(s.codes, code)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
