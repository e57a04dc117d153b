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

package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/middleware/logger"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

var (
	pathParamPattern = regexp.MustCompile(`\{([a-zA-Z]+)\}`)
	// validPathValue allows the characters OAuth client IDs use in practice
	validPathValue = regexp.MustCompile(`^[A-Za-z0-9._~:@-]{1,256}$`)
)

// AddCorrelationID propagates X-Correlation-ID, generating one when the caller did not send it
func AddCorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(logger.CorrelationIDHeader))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(logger.CorrelationIDHeader, id)
			next.ServeHTTP(w, r.WithContext(logger.WithCorrelationID(r.Context(), id)))
		})
	}
}

// CORS allows cross-origin requests from allowedOrigin; "*" reflects any origin with credentials
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowedOrigin == "*" || origin == allowedOrigin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
				if r.Method == http.MethodOptions {
					h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+logger.CorrelationIDHeader)
					h.Set("Access-Control-Max-Age", "600")
				}
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RecovererOnPanic converts handler panics into 500 responses
func RecovererOnPanic() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.GetLogger(r.Context()).Error("panic recovered",
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					utils.WriteErrorResponse(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// HandleFuncWithValidation registers handler for pattern, rejecting requests whose path parameters are malformed
func HandleFuncWithValidation(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	var params []string
	for _, m := range pathParamPattern.FindAllStringSubmatch(pattern, -1) {
		params = append(params, m[1])
	}
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		for _, p := range params {
			if !validPathValue.MatchString(r.PathValue(p)) {
				utils.WriteErrorResponse(w, http.StatusBadRequest, "invalid path parameter: "+p)
				return
			}
		}
		handler(w, r)
	})
}
