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

package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/models"
)

const (
	PathParamClientID = "clientId"

	// maxRequestBodyBytes bounds JSON and form bodies accepted by the API
	maxRequestBodyBytes = 1 << 20
)

// WriteSuccessResponse writes a success API response
func WriteSuccessResponse[T any](w http.ResponseWriter, statusCode int, data T) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	if statusCode == http.StatusNoContent {
		return
	}
	_ = json.NewEncoder(w).Encode(data) // Ignore encoding errors for response
}

// WriteErrorResponse writes an error API response
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	errPayload := &models.ErrorResponse{
		Error: message,
	}
	_ = json.NewEncoder(w).Encode(errPayload) // Ignore encoding errors for response
}

// WriteOAuthErrorResponse writes an OAuth style {error, error_description} response
func WriteOAuthErrorResponse(w http.ResponseWriter, statusCode int, code string, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(&models.ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

// WriteAuthError maps err onto its OAuth error code and HTTP status
func WriteAuthError(w http.ResponseWriter, err error) {
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		WriteOAuthErrorResponse(w, http.StatusInternalServerError, ErrorCodeServerError, "internal server error")
		return
	}
	WriteOAuthErrorResponse(w, StatusForErrorCode(authErr.Code), authErr.Code, authErr.Description)
}

// StatusForErrorCode returns the HTTP status used for an OAuth error code
func StatusForErrorCode(code string) int {
	switch code {
	case ErrorCodeInvalidRequest, ErrorCodeInvalidGrant, ErrorCodeUnsupportedGrantType:
		return http.StatusBadRequest
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// DecodeRequestBody decodes a JSON or form encoded body into a flat string map.
// Unknown JSON value types are rejected.
func DecodeRequestBody(r *http.Request) (map[string]string, error) {
	values := map[string]string{}
	if r.Body == nil {
		return values, nil
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBodyBytes)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: invalid form body: %w", ErrBadRequest, err)
		}
		for key := range r.PostForm {
			values[key] = r.PostForm.Get(key)
		}
		return values, nil
	}

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return values, nil
		}
		return nil, fmt.Errorf("%w: invalid JSON body: %w", ErrBadRequest, err)
	}
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			values[key] = v
		case nil:
		default:
			return nil, fmt.Errorf("%w: field %q must be a string", ErrBadRequest, key)
		}
	}
	return values, nil
}

// IsAbsoluteHTTPURL reports whether raw parses as an absolute http(s) URL
func IsAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
