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

package controllers

import (
	"net/http"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/config"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/middleware/jwtassertion"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/models"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/services"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

// TokenController defines the interface for token operations
type TokenController interface {
	// ExchangeTokens handles POST /api/auth/tokens
	ExchangeTokens(w http.ResponseWriter, r *http.Request)
	// GetJWKS handles GET /api/auth/jwks
	GetJWKS(w http.ResponseWriter, r *http.Request)
	// Introspect handles POST /api/auth/introspect
	Introspect(w http.ResponseWriter, r *http.Request)
	// UserInfo handles GET /api/auth/userinfo behind the bearer middleware
	UserInfo(w http.ResponseWriter, r *http.Request)
}

type tokenController struct {
	clients    services.ClientRegistry
	codes      services.AuthorizationCodeStore
	issuer     services.TokenIssuer
	keyManager services.KeyManager
	verifier   jwtassertion.TokenVerifier
	mockUser   config.MockUserConfig
}

// NewTokenController creates a new TokenController instance.
// verifier checks tokens presented to the introspection endpoint.
func NewTokenController(
	clients services.ClientRegistry,
	codes services.AuthorizationCodeStore,
	issuer services.TokenIssuer,
	keyManager services.KeyManager,
	verifier jwtassertion.TokenVerifier,
	oauthConfig config.OAuthConfig,
) TokenController {
	return &tokenController{
		clients:    clients,
		codes:      codes,
		issuer:     issuer,
		keyManager: keyManager,
		verifier:   verifier,
		mockUser:   oauthConfig.MockUser,
	}
}

func (c *tokenController) ExchangeTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	body, err := utils.DecodeRequestBody(r)
	if err != nil {
		log.Warn("ExchangeTokens: failed to parse request body", "error", err)
		utils.WriteOAuthErrorResponse(w, http.StatusBadRequest, utils.ErrorCodeInvalidRequest, "Invalid request body")
		return
	}
	req := models.TokenExchangeRequest{
		GrantType:    body["grant_type"],
		Code:         body["code"],
		RedirectURI:  body["redirect_uri"],
		ClientID:     body["client_id"],
		ClientSecret: body["client_secret"],
	}

	if req.GrantType != models.GrantTypeAuthorizationCode {
		utils.WriteOAuthErrorResponse(w, http.StatusBadRequest, utils.ErrorCodeUnsupportedGrantType, "Only the authorization_code grant is supported")
		return
	}
	if req.Code == "" || req.RedirectURI == "" || req.ClientID == "" {
		utils.WriteOAuthErrorResponse(w, http.StatusBadRequest, utils.ErrorCodeInvalidRequest, "Missing required parameters")
		return
	}

	c.clients.GetOrRegister(req.ClientID, req.ClientSecret, req.RedirectURI)

	if err := c.codes.Consume(req.Code, req.ClientID, req.RedirectURI); err != nil {
		log.Warn("ExchangeTokens: authorization code rejected", "clientID", req.ClientID, "error", err)
		utils.WriteAuthError(w, err)
		return
	}

	pair, err := c.issuer.IssueTokenPair(ctx, req.ClientID, models.SubjectClaims{
		Subject: c.mockUser.Subject,
		Name:    c.mockUser.Name,
		Email:   c.mockUser.Email,
	})
	if err != nil {
		log.Error("ExchangeTokens: failed to issue tokens", "clientID", req.ClientID, "error", err)
		utils.WriteOAuthErrorResponse(w, http.StatusInternalServerError, utils.ErrorCodeServerError, "Failed to issue tokens")
		return
	}

	log.Info("ExchangeTokens: tokens issued", "clientID", req.ClientID, "keyID", pair.KeyID)
	utils.WriteSuccessResponse(w, http.StatusOK, models.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn,
	})
}

func (c *tokenController) GetJWKS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	jwks, err := c.keyManager.GetPublicKeySet(ctx)
	if err != nil {
		log.Error("GetJWKS: failed to get JWKS", "error", err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to generate JWKS")
		return
	}

	log.Debug("GetJWKS: JWKS retrieved successfully", "keyCount", len(jwks.Keys))
	utils.WriteSuccessResponse(w, http.StatusOK, jwks)
}

func (c *tokenController) Introspect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	body, err := utils.DecodeRequestBody(r)
	if err != nil || body["token"] == "" {
		utils.WriteOAuthErrorResponse(w, http.StatusBadRequest, utils.ErrorCodeInvalidRequest, "Missing token")
		return
	}

	result, err := c.verifier.Verify(ctx, body["token"])
	if err != nil {
		if utils.ErrorCodeOf(err) != utils.ErrorCodeUnauthorized {
			log.Error("Introspect: verification failed", "error", err)
			utils.WriteOAuthErrorResponse(w, http.StatusInternalServerError, utils.ErrorCodeServerError, "Failed to introspect token")
			return
		}
		log.Debug("Introspect: token inactive", "error", err)
		utils.WriteSuccessResponse(w, http.StatusOK, models.InactiveTokenResponse{Active: false})
		return
	}

	resp := make(map[string]any, len(result.Claims)+1)
	for k, v := range result.Claims {
		resp[k] = v
	}
	resp["active"] = true
	resp["sub"] = result.Subject
	utils.WriteSuccessResponse(w, http.StatusOK, resp)
}

func (c *tokenController) UserInfo(w http.ResponseWriter, r *http.Request) {
	result := jwtassertion.GetVerificationResult(r.Context())
	if result == nil {
		utils.WriteOAuthErrorResponse(w, http.StatusUnauthorized, utils.ErrorCodeUnauthorized, "missing verification result")
		return
	}
	utils.WriteSuccessResponse(w, http.StatusOK, models.UserInfoResponse{
		Sub:    result.Subject,
		Claims: result.Claims,
	})
}
