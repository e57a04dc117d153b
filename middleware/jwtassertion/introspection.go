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
	"net/http"
	"time"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/clients/requests"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/models"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

// introspectionVerifier delegates token validation to a remote introspection endpoint
type introspectionVerifier struct {
	url     string
	client  requests.HttpClient
	timeout time.Duration
}

// NewIntrospectionVerifier creates a verifier that POSTs tokens to introspectionURL.
// Any transport or HTTP failure rejects the token.
func NewIntrospectionVerifier(introspectionURL string, client requests.HttpClient, timeout time.Duration) TokenVerifier {
	if client == nil {
		client = &http.Client{}
	}
	return &introspectionVerifier{
		url:     introspectionURL,
		client:  client,
		timeout: timeout,
	}
}

func (v *introspectionVerifier) Verify(ctx context.Context, token string) (*VerificationResult, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	req := (&requests.HttpRequest{
		Name:   "jwtassertion.introspect",
		URL:    v.url,
		Method: http.MethodPost,
	}).SetJson(models.IntrospectionRequest{Token: token})

	var resp map[string]any
	if err := requests.SendRequest(ctx, v.client, req).ScanResponse(&resp, http.StatusOK); err != nil {
		logger.GetLogger(ctx).Error("Token introspection failed", "url", v.url, "error", err)
		return nil, utils.Unreachable(err)
	}

	if active, _ := resp["active"].(bool); !active {
		return nil, utils.Unauthorized(utils.ErrTokenInactive)
	}
	return resultFromClaims(resp)
}
