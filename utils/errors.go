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
	"errors"
	"fmt"
)

// OAuth error codes returned in the "error" field
const (
	ErrorCodeInvalidRequest         = "invalid_request"
	ErrorCodeInvalidGrant           = "invalid_grant"
	ErrorCodeUnsupportedGrantType   = "unsupported_grant_type"
	ErrorCodeServerError            = "server_error"
	ErrorCodeUnauthorized           = "unauthorized"
	ErrorCodeAuthServiceUnreachable = "auth_service_unreachable"
)

var (
	// Resource not found errors
	ErrClientNotFound = errors.New("client not found")

	// Authorization code errors
	ErrCodeExpired       = errors.New("authorization code expired")
	ErrCodeMismatch      = errors.New("client ID or redirect URI mismatch")
	ErrCodeAlreadyUsed   = errors.New("authorization code already used")
	ErrCodeInvalid       = errors.New("invalid authorization code")
	ErrCodeAlreadyExists = errors.New("authorization code already registered")

	// Request errors
	ErrBadRequest           = errors.New("bad request")
	ErrUnsupportedGrantType = errors.New("unsupported grant type")

	// Authorization errors
	ErrUnauthorized         = errors.New("unauthorized")
	ErrMissingBearerToken   = errors.New("missing or malformed bearer token")
	ErrMissingSubject       = errors.New("token subject claim missing")
	ErrTokenInactive        = errors.New("token is not active")
	ErrUnknownSigningKey    = errors.New("unknown signing key")
	ErrRefreshTokenAsBearer = errors.New("refresh token presented as bearer token")

	// Server errors
	ErrSigningKeyUnavailable  = errors.New("signing key unavailable")
	ErrAuthServiceUnreachable = errors.New("auth service unreachable")
)

// AuthError is a typed authorization failure carrying its OAuth error code.
// It unwraps to the underlying sentinel so callers can use errors.Is.
type AuthError struct {
	Code        string
	Description string
	Err         error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError builds an AuthError whose description defaults to the wrapped error text
func NewAuthError(code string, err error) *AuthError {
	desc := ""
	if err != nil {
		desc = err.Error()
	}
	return &AuthError{Code: code, Description: desc, Err: err}
}

// InvalidGrant wraps err as an invalid_grant AuthError
func InvalidGrant(err error) *AuthError {
	return NewAuthError(ErrorCodeInvalidGrant, err)
}

// Unauthorized wraps err as an unauthorized AuthError
func Unauthorized(err error) *AuthError {
	return &AuthError{Code: ErrorCodeUnauthorized, Description: "invalid bearer token", Err: fmt.Errorf("%w: %w", ErrUnauthorized, err)}
}

// Unreachable wraps err as an auth_service_unreachable AuthError
func Unreachable(err error) *AuthError {
	return &AuthError{Code: ErrorCodeAuthServiceUnreachable, Description: "authentication service error", Err: fmt.Errorf("%w: %w", ErrAuthServiceUnreachable, err)}
}

// ErrorCodeOf returns the OAuth error code of err, or server_error when err is not an AuthError
func ErrorCodeOf(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return ErrorCodeServerError
}
