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
	"net/http"
	"strings"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

type Middleware func(http.Handler) http.Handler

type verificationResultCtxKey struct{}

type jwtTokenCtxKey struct{}

const bearerPrefix = "bearer "

// BearerAuthMiddleware rejects requests without a valid bearer token in header.
// Header problems are rejected before the verifier is consulted.
func BearerAuthMiddleware(header string, verifier TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.GetLogger(r.Context())

			tokenString, ok := extractBearerToken(r.Header.Get(header))
			if !ok {
				utils.WriteOAuthErrorResponse(w, http.StatusUnauthorized, utils.ErrorCodeUnauthorized, utils.ErrMissingBearerToken.Error())
				return
			}

			result, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				log.Warn("Bearer token rejected", "error", err)
				utils.WriteAuthError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), verificationResultCtxKey{}, result)
			ctx = context.WithValue(ctx, jwtTokenCtxKey{}, tokenString)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(value string) (string, bool) {
	if len(value) <= len(bearerPrefix) || !strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(value[len(bearerPrefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// GetVerificationResult returns the verified identity stored by BearerAuthMiddleware
func GetVerificationResult(ctx context.Context) *VerificationResult {
	result, ok := ctx.Value(verificationResultCtxKey{}).(*VerificationResult)
	if !ok {
		return nil
	}
	return result
}

func GetJWTFromContext(ctx context.Context) string {
	token, ok := ctx.Value(jwtTokenCtxKey{}).(string)
	if !ok {
		return ""
	}
	return token
}
