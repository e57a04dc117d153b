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

package api

import (
	"net/http"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/controllers"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/middleware/jwtassertion"
)

// registerTokenRoutes registers the token API routes
func registerTokenRoutes(mux *http.ServeMux, ctrl controllers.TokenController, authMiddleware jwtassertion.Middleware) {
	// JWKS endpoint - no authentication required for public key retrieval
	mux.HandleFunc("GET /api/auth/jwks", ctrl.GetJWKS)
	mux.HandleFunc("POST /api/auth/tokens", ctrl.ExchangeTokens)
	mux.HandleFunc("POST /api/auth/introspect", ctrl.Introspect)

	mux.Handle("GET /api/auth/userinfo", authMiddleware(http.HandlerFunc(ctrl.UserInfo)))
}
