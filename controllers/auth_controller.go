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

package controllers

import (
	"errors"
	"net/http"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/config"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/models"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/services"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

// ServiceName is reported by the health endpoint
const ServiceName = "iaa-auth-mock-server"

// AuthController handles client and authorization code registration
type AuthController interface {
	// RegisterClient handles POST /api/auth/register-client
	RegisterClient(w http.ResponseWriter, r *http.Request)
	// RegisterCode handles POST /api/auth/code
	RegisterCode(w http.ResponseWriter, r *http.Request)
	// GetClient handles GET /api/auth/clients/{clientId}
	GetClient(w http.ResponseWriter, r *http.Request)
	// Health handles GET /health
	Health(w http.ResponseWriter, r *http.Request)
}

type authController struct {
	clients services.ClientRegistry
	codes   services.AuthorizationCodeStore
	version string
}

// NewAuthController creates a new AuthController instance
func NewAuthController(clients services.ClientRegistry, codes services.AuthorizationCodeStore, cfg config.Config) AuthController {
	return &authController{
		clients: clients,
		codes:   codes,
		version: cfg.PackageVersion,
	}
}

func (c *authController) RegisterClient(w http.ResponseWriter, r *http.Request) {
	log := logger.GetLogger(r.Context())

	body, err := utils.DecodeRequestBody(r)
	if err != nil {
		log.Warn("RegisterClient: failed to parse request body", "error", err)
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	clientID := body["client_id"]
	if clientID == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing client_id")
		return
	}

	_, created := c.clients.GetOrRegister(clientID, body["client_secret"], body["redirect_uri"])
	log.Info("RegisterClient: client registered", "clientID", clientID, "created", created)

	utils.WriteSuccessResponse(w, http.StatusOK, models.RegisterClientResponse{
		ClientID: clientID,
		Message:  "Client registered successfully (development mode)",
	})
}

func (c *authController) RegisterCode(w http.ResponseWriter, r *http.Request) {
	log := logger.GetLogger(r.Context())

	body, err := utils.DecodeRequestBody(r)
	if err != nil {
		log.Warn("RegisterCode: failed to parse request body", "error", err)
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req := models.RegisterCodeRequest{
		Code:        body["code"],
		ClientID:    body["client_id"],
		RedirectURI: body["redirect_uri"],
	}
	if req.Code == "" || req.ClientID == "" || req.RedirectURI == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing parameters")
		return
	}

	c.clients.GetOrRegister(req.ClientID, "", req.RedirectURI)

	if err := c.codes.Register(req.Code, req.ClientID, req.RedirectURI); err != nil {
		log.Warn("RegisterCode: code rejected", "clientID", req.ClientID, "error", err)
		utils.WriteAuthError(w, err)
		return
	}

	utils.WriteSuccessResponse(w, http.StatusOK, models.OKResponse{OK: true})
}

func (c *authController) GetClient(w http.ResponseWriter, r *http.Request) {
	log := logger.GetLogger(r.Context())
	clientID := r.PathValue(utils.PathParamClientID)

	client, err := c.clients.Get(clientID)
	if err == nil {
		utils.WriteSuccessResponse(w, http.StatusOK, models.ClientStatusResponse{
			ClientID:     client.ClientID,
			Registered:   true,
			RedirectURIs: client.RedirectURIs,
		})
		return
	}
	if !errors.Is(err, utils.ErrClientNotFound) {
		log.Error("GetClient: failed to look up client", "clientID", clientID, "error", err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to look up client")
		return
	}

	client, _ = c.clients.GetOrRegister(clientID, "", "")
	log.Info("GetClient: auto-registered client", "clientID", clientID)
	utils.WriteSuccessResponse(w, http.StatusOK, models.ClientStatusResponse{
		ClientID:       client.ClientID,
		Registered:     true,
		RedirectURIs:   client.RedirectURIs,
		AutoRegistered: true,
		Message:        "Client auto-registered (development mode)",
	})
}

func (c *authController) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, http.StatusOK, models.HealthResponse{
		OK:                true,
		Service:           ServiceName,
		Version:           c.version,
		RegisteredClients: c.clients.List(),
	})
}
