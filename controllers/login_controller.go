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
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/config"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/services"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

//go:embed templates/login.html
var loginPageHTML string

var loginPage = template.Must(template.New("login").Parse(loginPageHTML))

type loginPageData struct {
	ClientID    string
	RedirectURI string
	State       string
	CodePrefix  string
	UserName    string
}

// LoginController serves the mock login page
type LoginController interface {
	// ShowLogin handles GET /auth/authenticate
	ShowLogin(w http.ResponseWriter, r *http.Request)
	// SubmitLogin handles POST /auth/authenticate
	SubmitLogin(w http.ResponseWriter, r *http.Request)
}

type loginController struct {
	clients    services.ClientRegistry
	codes      services.AuthorizationCodeStore
	codePrefix string
	userName   string
}

// NewLoginController creates a new LoginController instance
func NewLoginController(clients services.ClientRegistry, codes services.AuthorizationCodeStore, oauthConfig config.OAuthConfig) LoginController {
	return &loginController{
		clients:    clients,
		codes:      codes,
		codePrefix: oauthConfig.ExternalCodePrefix,
		userName:   oauthConfig.MockUser.Name,
	}
}

func (c *loginController) ShowLogin(w http.ResponseWriter, r *http.Request) {
	log := logger.GetLogger(r.Context())
	q := r.URL.Query()
	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	if clientID == "" || redirectURI == "" {
		http.Error(w, "Missing client_id or redirect_uri", http.StatusBadRequest)
		return
	}

	if _, created := c.clients.GetOrRegister(clientID, "", redirectURI); created {
		log.Info("ShowLogin: auto-registered client during login", "clientID", clientID)
	}

	var buf bytes.Buffer
	err := loginPage.Execute(&buf, loginPageData{
		ClientID:    clientID,
		RedirectURI: redirectURI,
		State:       q.Get("state"),
		CodePrefix:  c.codePrefix,
		UserName:    c.userName,
	})
	if err != nil {
		log.Error("ShowLogin: failed to render login page", "error", err)
		http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (c *loginController) SubmitLogin(w http.ResponseWriter, r *http.Request) {
	log := logger.GetLogger(r.Context())

	body, err := utils.DecodeRequestBody(r)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	clientID := body["client_id"]
	redirectURI := body["redirect_uri"]
	if clientID == "" || redirectURI == "" {
		http.Error(w, "Missing client_id or redirect_uri", http.StatusBadRequest)
		return
	}
	target, err := url.Parse(redirectURI)
	if err != nil || !utils.IsAbsoluteHTTPURL(redirectURI) {
		http.Error(w, "redirect_uri must be an absolute http(s) URL", http.StatusBadRequest)
		return
	}

	c.clients.GetOrRegister(clientID, "", redirectURI)

	code, err := c.codes.Issue(clientID, redirectURI)
	if err != nil {
		log.Error("SubmitLogin: failed to issue authorization code", "clientID", clientID, "error", err)
		http.Error(w, "Failed to issue authorization code", http.StatusInternalServerError)
		return
	}

	query := target.Query()
	query.Set("code", code)
	if state := body["state"]; state != "" {
		query.Set("state", state)
	}
	target.RawQuery = query.Encode()

	log.Info("SubmitLogin: authorization code issued", "clientID", clientID)
	http.Redirect(w, r, target.String(), http.StatusFound)
}
