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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/clients/requests"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/models"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

// AuthServiceClient is a typed client of the auth service HTTP API
type AuthServiceClient interface {
	RegisterClient(ctx context.Context, req models.RegisterClientRequest) (*models.RegisterClientResponse, error)
	RegisterCode(ctx context.Context, req models.RegisterCodeRequest) error
	GetClient(ctx context.Context, clientID string) (*models.ClientStatusResponse, error)
	// ExchangeCode redeems an authorization code; OAuth failures are returned as *utils.AuthError
	ExchangeCode(ctx context.Context, req models.TokenExchangeRequest) (*models.TokenResponse, error)
	GetJWKS(ctx context.Context) (*models.JWKS, error)
	// Introspect returns the introspection document; inactive tokens yield active=false, not an error
	Introspect(ctx context.Context, token string) (map[string]any, error)
	UserInfo(ctx context.Context, accessToken string) (*models.UserInfoResponse, error)
	Health(ctx context.Context) (*models.HealthResponse, error)
	// AuthorizeURL builds the login page URL a browser is sent to
	AuthorizeURL(clientID, redirectURI, state string) string
}

// Config holds the auth service client configuration
type Config struct {
	BaseURL     string
	RetryConfig requests.RequestRetryConfig
}

type authServiceClient struct {
	baseURL    string
	httpClient requests.HttpClient
}

// NewAuthServiceClient creates a client of the auth service at cfg.BaseURL
func NewAuthServiceClient(cfg *Config) (AuthServiceClient, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if !utils.IsAbsoluteHTTPURL(cfg.BaseURL) {
		return nil, fmt.Errorf("base URL must be an absolute http(s) URL: %q", cfg.BaseURL)
	}
	return &authServiceClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: requests.NewRetryableHTTPClient(cfg.RetryConfig),
	}, nil
}

func (c *authServiceClient) RegisterClient(ctx context.Context, body models.RegisterClientRequest) (*models.RegisterClientResponse, error) {
	req := &requests.HttpRequest{
		Name:   "authsvc.RegisterClient",
		URL:    c.baseURL + "/api/auth/register-client",
		Method: http.MethodPost,
	}
	req.SetJson(body)

	var resp models.RegisterClientResponse
	if err := requests.SendRequest(ctx, c.httpClient, req).ScanResponse(&resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("authsvc.RegisterClient: %w", translateError(err))
	}
	return &resp, nil
}

func (c *authServiceClient) RegisterCode(ctx context.Context, body models.RegisterCodeRequest) error {
	req := &requests.HttpRequest{
		Name:   "authsvc.RegisterCode",
		URL:    c.baseURL + "/api/auth/code",
		Method: http.MethodPost,
	}
	req.SetJson(body)

	var resp models.OKResponse
	if err := requests.SendRequest(ctx, c.httpClient, req).ScanResponse(&resp, http.StatusOK); err != nil {
		return fmt.Errorf("authsvc.RegisterCode: %w", translateError(err))
	}
	return nil
}

func (c *authServiceClient) GetClient(ctx context.Context, clientID string) (*models.ClientStatusResponse, error) {
	req := &requests.HttpRequest{
		Name:   "authsvc.GetClient",
		URL:    c.baseURL + "/api/auth/clients/" + url.PathEscape(clientID),
		Method: http.MethodGet,
	}

	var resp models.ClientStatusResponse
	if err := requests.SendRequest(ctx, c.httpClient, req).ScanResponse(&resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("authsvc.GetClient: %w", translateError(err))
	}
	return &resp, nil
}

func (c *authServiceClient) ExchangeCode(ctx context.Context, body models.TokenExchangeRequest) (*models.TokenResponse, error) {
	if body.GrantType == "" {
		body.GrantType = models.GrantTypeAuthorizationCode
	}
	form := map[string]string{
		"grant_type":   body.GrantType,
		"code":         body.Code,
		"redirect_uri": body.RedirectURI,
		"client_id":    body.ClientID,
	}
	if body.ClientSecret != "" {
		form["client_secret"] = body.ClientSecret
	}
	req := &requests.HttpRequest{
		Name:   "authsvc.ExchangeCode",
		URL:    c.baseURL + "/api/auth/tokens",
		Method: http.MethodPost,
	}
	req.SetFormData(form)

	var resp models.TokenResponse
	if err := requests.SendRequest(ctx, c.httpClient, req).ScanResponse(&resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("authsvc.ExchangeCode: %w", translateError(err))
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("authsvc.ExchangeCode: empty access token in response")
	}
	return &resp, nil
}

func (c *authServiceClient) GetJWKS(ctx context.Context) (*models.JWKS, error) {
	req := &requests.HttpRequest{
		Name:   "authsvc.GetJWKS",
		URL:    c.baseURL + "/api/auth/jwks",
		Method: http.MethodGet,
	}

	var resp models.JWKS
	if err := requests.SendRequest(ctx, c.httpClient, req).ScanResponse(&resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("authsvc.GetJWKS: %w", translateError(err))
	}
	return &resp, nil
}

func (c *authServiceClient) Introspect(ctx context.Context, token string) (map[string]any, error) {
	req := &requests.HttpRequest{
		Name:   "authsvc.Introspect",
		URL:    c.baseURL + "/api/auth/introspect",
		Method: http.MethodPost,
	}
	req.SetJson(models.IntrospectionRequest{Token: token})

	var resp map[string]any
	if err := requests.SendRequest(ctx, c.httpClient, req).ScanResponse(&resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("authsvc.Introspect: %w", translateError(err))
	}
	return resp, nil
}

func (c *authServiceClient) UserInfo(ctx context.Context, accessToken string) (*models.UserInfoResponse, error) {
	req := &requests.HttpRequest{
		Name:   "authsvc.UserInfo",
		URL:    c.baseURL + "/api/auth/userinfo",
		Method: http.MethodGet,
	}
	req.SetHeader("Authorization", "Bearer "+accessToken)

	var resp models.UserInfoResponse
	if err := requests.SendRequest(ctx, c.httpClient, req).ScanResponse(&resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("authsvc.UserInfo: %w", translateError(err))
	}
	return &resp, nil
}

func (c *authServiceClient) Health(ctx context.Context) (*models.HealthResponse, error) {
	req := &requests.HttpRequest{
		Name:   "authsvc.Health",
		URL:    c.baseURL + "/health",
		Method: http.MethodGet,
	}

	var resp models.HealthResponse
	if err := requests.SendRequest(ctx, c.httpClient, req).ScanResponse(&resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("authsvc.Health: %w", translateError(err))
	}
	return &resp, nil
}

func (c *authServiceClient) AuthorizeURL(clientID, redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	if state != "" {
		q.Set("state", state)
	}
	return c.baseURL + "/auth/authenticate?" + q.Encode()
}

// translateError turns OAuth error bodies into *utils.AuthError; other failures are returned unchanged
func translateError(err error) error {
	var httpErr *requests.HttpError
	if !errors.As(err, &httpErr) {
		return err
	}
	var body models.ErrorResponse
	if jsonErr := json.Unmarshal([]byte(httpErr.Body), &body); jsonErr != nil || body.Error == "" {
		return err
	}
	switch body.Error {
	case utils.ErrorCodeInvalidRequest, utils.ErrorCodeInvalidGrant, utils.ErrorCodeUnsupportedGrantType,
		utils.ErrorCodeServerError, utils.ErrorCodeUnauthorized, utils.ErrorCodeAuthServiceUnreachable:
		return &utils.AuthError{Code: body.Error, Description: body.ErrorDescription, Err: httpErr}
	default:
		return err
	}
}
